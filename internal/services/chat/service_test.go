package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

type memoryChatStorage struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func (m *memoryChatStorage) SaveMessage(_ context.Context, message *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *message)
	return nil
}

func (m *memoryChatStorage) ListMessages(_ context.Context) ([]*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := make([]*models.ChatMessage, 0, len(m.messages))
	for i := range m.messages {
		message := m.messages[i]
		sorted = append(sorted, &message)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted, nil
}

func (m *memoryChatStorage) DeleteAllMessages(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return nil
}

func (m *memoryChatStorage) CountMessages(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages), nil
}

type staticProducts struct {
	products []*models.Product
}

func (s *staticProducts) SaveProduct(_ context.Context, _ *models.Product) error { return nil }
func (s *staticProducts) GetProduct(_ context.Context, _ string) (*models.Product, error) {
	return nil, interfaces.ErrProductNotFound
}
func (s *staticProducts) ListProducts(_ context.Context, _ int) ([]*models.Product, error) {
	return s.products, nil
}
func (s *staticProducts) ListProductsAscending(_ context.Context) ([]*models.Product, error) {
	return s.products, nil
}
func (s *staticProducts) DeleteProduct(_ context.Context, _ string) error  { return nil }
func (s *staticProducts) DeleteAllProducts(_ context.Context) error        { return nil }
func (s *staticProducts) CountProducts(_ context.Context) (int, error)     { return len(s.products), nil }

type scriptedCompletion struct {
	reply        string
	err          error
	lastMessages []interfaces.Message
}

func (s *scriptedCompletion) Chat(_ context.Context, messages []interfaces.Message) (string, error) {
	s.lastMessages = messages
	return s.reply, s.err
}

func (s *scriptedCompletion) HealthCheck(_ context.Context) error { return nil }
func (s *scriptedCompletion) Close() error                        { return nil }

func newTestService(completion *scriptedCompletion, storage *memoryChatStorage, products []*models.Product) *Service {
	return NewService(completion, storage, &staticProducts{products: products}, common.GetLogger(), 0)
}

func TestSend_PersistsBothTurns(t *testing.T) {
	storage := &memoryChatStorage{}
	completion := &scriptedCompletion{reply: "Eat more vegetables."}
	products := []*models.Product{{Name: "Test Bar", TimeScanned: time.Now()}}
	svc := newTestService(completion, storage, products)

	reply, err := svc.Send(context.Background(), "How healthy is my diet?")
	require.NoError(t, err)
	assert.Equal(t, "Eat more vegetables.", reply.Content)
	assert.Equal(t, models.SenderAssistant, reply.Sender)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SenderUser, history[0].Sender)
	assert.Equal(t, "How healthy is my diet?", history[0].Content)
	assert.Equal(t, models.SenderAssistant, history[1].Sender)

	// The system turn carries the serialized scan history.
	require.Len(t, completion.lastMessages, 2)
	assert.Equal(t, interfaces.RoleSystem, completion.lastMessages[0].Role)
	assert.Contains(t, completion.lastMessages[0].Content, `"name":"Test Bar"`)
	assert.Equal(t, "How healthy is my diet?", completion.lastMessages[1].Content)
}

func TestSend_ProviderFailureYieldsFallback(t *testing.T) {
	storage := &memoryChatStorage{}
	completion := &scriptedCompletion{err: errors.New("timeout")}
	svc := newTestService(completion, storage, nil)

	reply, err := svc.Send(context.Background(), "Hello?")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply.Content)

	history, _ := svc.History(context.Background())
	require.Len(t, history, 2)
	assert.Equal(t, FallbackReply, history[1].Content)
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	svc := newTestService(&scriptedCompletion{}, &memoryChatStorage{}, nil)

	_, err := svc.Send(context.Background(), "   ")
	assert.Error(t, err)

	count, _ := (&memoryChatStorage{}).CountMessages(context.Background())
	assert.Equal(t, 0, count)
}

func TestClear(t *testing.T) {
	storage := &memoryChatStorage{}
	svc := newTestService(&scriptedCompletion{reply: "ok"}, storage, nil)

	_, err := svc.Send(context.Background(), "First question")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background()))
	history, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}
