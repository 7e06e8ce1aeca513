package enrichment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

type fakeProductStorage struct {
	mu       sync.Mutex
	products map[string]models.Product

	// saveHook, when set, runs before every save and may block to force a
	// particular interleaving of concurrent persists.
	saveHook func(*models.Product)
}

func newFakeProductStorage() *fakeProductStorage {
	return &fakeProductStorage{products: make(map[string]models.Product)}
}

func (f *fakeProductStorage) SaveProduct(_ context.Context, product *models.Product) error {
	f.mu.Lock()
	hook := f.saveHook
	f.mu.Unlock()
	if hook != nil {
		hook(product)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[product.ID] = *product
	return nil
}

func (f *fakeProductStorage) GetProduct(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok {
		return nil, interfaces.ErrProductNotFound
	}
	return &product, nil
}

func (f *fakeProductStorage) ListProducts(_ context.Context, _ int) ([]*models.Product, error) {
	return nil, nil
}

func (f *fakeProductStorage) ListProductsAscending(_ context.Context) ([]*models.Product, error) {
	return nil, nil
}

func (f *fakeProductStorage) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
	return nil
}

func (f *fakeProductStorage) DeleteAllProducts(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = make(map[string]models.Product)
	return nil
}

func (f *fakeProductStorage) CountProducts(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products), nil
}

// fakeCompletion answers by matching a substring of the last message and
// counts every call.
type fakeCompletion struct {
	mu      sync.Mutex
	calls   int
	replies map[string]string
	err     error
	block   chan struct{}
}

func (f *fakeCompletion) Chat(_ context.Context, messages []interfaces.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return "", f.err
	}

	prompt := messages[len(messages)-1].Content
	for needle, reply := range f.replies {
		if strings.Contains(prompt, needle) {
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

func (f *fakeCompletion) HealthCheck(_ context.Context) error { return nil }
func (f *fakeCompletion) Close() error                        { return nil }

func (f *fakeCompletion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestProduct(id string) *models.Product {
	return &models.Product{
		ID:          id,
		Barcode:     "0123456789012",
		Name:        "Test Bar",
		Brand:       "Acme",
		Quantity:    "100 g",
		Ingredients: "Sugar, Salt, Water",
		RiskScore:   models.RiskScoreNone,
		TimeScanned: time.Now(),
		Enrichment:  models.NewEnrichmentStatus(),
	}
}

func newTestService(storage *fakeProductStorage, completion *fakeCompletion) *Service {
	return NewService(storage, completion, nil, common.GetLogger(), 5*time.Second)
}

func TestRequest_AllFieldsSucceed(t *testing.T) {
	storage := newFakeProductStorage()
	product := newTestProduct("prod_1")
	require.NoError(t, storage.SaveProduct(context.Background(), product))

	// Route on distinctive prompt fragments.
	completion := &fakeCompletion{replies: map[string]string{
		"Name: Test Bar":               "A sugary snack with little nutritional value.",
		"five-sentence summary":        "Sugar: Sweetens.###Salt: Preserves.###Water: Hydrates.",
		"output only a single integer": "42",
	}}

	svc := newTestService(storage, completion)
	require.NoError(t, svc.Request(context.Background(), "prod_1", nil, false))
	svc.Wait("prod_1")

	stored, err := storage.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, "A sugary snack with little nutritional value.", stored.Summary)
	assert.Equal(t, []string{"Sweetens.", "Preserves.", "Hydrates."}, stored.Explanations)
	assert.Equal(t, 42, stored.RiskScore)
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.Summary)
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.Explanations)
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.RiskScore)
	assert.Equal(t, 3, completion.callCount())
}

func TestRequest_ConcurrentFieldsKeepBothResults(t *testing.T) {
	storage := newFakeProductStorage()
	require.NoError(t, storage.SaveProduct(context.Background(), newTestProduct("prod_1")))

	completion := &fakeCompletion{replies: map[string]string{
		"Name: Test Bar":               "A sugary snack.",
		"output only a single integer": "42",
	}}

	// Stall the save carrying the summary so the risk-score persist runs
	// while it is still in flight.
	var once sync.Once
	stalled := make(chan struct{})
	release := make(chan struct{})
	storage.saveHook = func(p *models.Product) {
		if p.Summary != "" {
			once.Do(func() {
				close(stalled)
				<-release
			})
		}
	}

	svc := newTestService(storage, completion)

	require.NoError(t, svc.Request(context.Background(), "prod_1",
		[]models.EnrichmentField{models.FieldSummary}, false))
	<-stalled

	require.NoError(t, svc.Request(context.Background(), "prod_1",
		[]models.EnrichmentField{models.FieldRiskScore}, false))
	require.Eventually(t, func() bool { return completion.callCount() == 2 },
		time.Second, 5*time.Millisecond)
	// Let the risk-score fetch reach its persist before the stalled save
	// is released.
	time.Sleep(20 * time.Millisecond)
	close(release)

	svc.Wait("prod_1")

	stored, err := storage.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, "A sugary snack.", stored.Summary)
	assert.Equal(t, 42, stored.RiskScore)
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.Summary)
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.RiskScore)
}

func TestRequest_SingleFlight(t *testing.T) {
	storage := newFakeProductStorage()
	require.NoError(t, storage.SaveProduct(context.Background(), newTestProduct("prod_1")))

	block := make(chan struct{})
	completion := &fakeCompletion{
		block:   block,
		replies: map[string]string{"output only a single integer": "42"},
	}

	svc := newTestService(storage, completion)
	fields := []models.EnrichmentField{models.FieldRiskScore}

	require.NoError(t, svc.Request(context.Background(), "prod_1", fields, false))
	require.NoError(t, svc.Request(context.Background(), "prod_1", fields, false))

	close(block)
	svc.Wait("prod_1")

	assert.Equal(t, 1, completion.callCount())

	stored, err := storage.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, 42, stored.RiskScore)
}

func TestRequest_SucceededFieldSkippedWithoutForce(t *testing.T) {
	storage := newFakeProductStorage()
	product := newTestProduct("prod_1")
	product.RiskScore = 30
	product.Enrichment.RiskScore = models.EnrichmentSucceeded
	require.NoError(t, storage.SaveProduct(context.Background(), product))

	completion := &fakeCompletion{replies: map[string]string{"output only a single integer": "99"}}
	svc := newTestService(storage, completion)
	fields := []models.EnrichmentField{models.FieldRiskScore}

	require.NoError(t, svc.Request(context.Background(), "prod_1", fields, false))
	svc.Wait("prod_1")
	assert.Equal(t, 0, completion.callCount())

	require.NoError(t, svc.Request(context.Background(), "prod_1", fields, true))
	svc.Wait("prod_1")
	assert.Equal(t, 1, completion.callCount())

	stored, _ := storage.GetProduct(context.Background(), "prod_1")
	assert.Equal(t, 99, stored.RiskScore)
}

func TestRequest_TransportFailureMarksFailed(t *testing.T) {
	storage := newFakeProductStorage()
	require.NoError(t, storage.SaveProduct(context.Background(), newTestProduct("prod_1")))

	completion := &fakeCompletion{err: errors.New("connection refused")}
	svc := newTestService(storage, completion)

	require.NoError(t, svc.Request(context.Background(), "prod_1", nil, false))
	svc.Wait("prod_1")

	stored, err := storage.GetProduct(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrichmentFailed, stored.Enrichment.Summary)
	assert.Equal(t, models.EnrichmentFailed, stored.Enrichment.Explanations)
	assert.Equal(t, models.EnrichmentFailed, stored.Enrichment.RiskScore)
	assert.Equal(t, "", stored.Summary)
	assert.Equal(t, []string{}, stored.Explanations)
	assert.Equal(t, models.RiskScoreFailed, stored.RiskScore)

	// The record is still usable with its lookup attributes.
	assert.Equal(t, "Test Bar", stored.Name)
}

func TestRequest_FailedFieldRetryable(t *testing.T) {
	storage := newFakeProductStorage()
	product := newTestProduct("prod_1")
	product.RiskScore = models.RiskScoreFailed
	product.Enrichment.RiskScore = models.EnrichmentFailed
	require.NoError(t, storage.SaveProduct(context.Background(), product))

	completion := &fakeCompletion{replies: map[string]string{"output only a single integer": "17"}}
	svc := newTestService(storage, completion)

	require.NoError(t, svc.Request(context.Background(), "prod_1", []models.EnrichmentField{models.FieldRiskScore}, false))
	svc.Wait("prod_1")

	stored, _ := storage.GetProduct(context.Background(), "prod_1")
	assert.Equal(t, 17, stored.RiskScore)
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.RiskScore)
}

func TestRequest_CountMismatchIsFailure(t *testing.T) {
	storage := newFakeProductStorage()
	require.NoError(t, storage.SaveProduct(context.Background(), newTestProduct("prod_1")))

	completion := &fakeCompletion{replies: map[string]string{
		"five-sentence summary": "Sugar: Sweetens.###Salt: Preserves.",
	}}
	svc := newTestService(storage, completion)

	require.NoError(t, svc.Request(context.Background(), "prod_1", []models.EnrichmentField{models.FieldExplanations}, false))
	svc.Wait("prod_1")

	stored, _ := storage.GetProduct(context.Background(), "prod_1")
	assert.Equal(t, models.EnrichmentFailed, stored.Enrichment.Explanations)
	assert.Equal(t, []string{}, stored.Explanations)
}

func TestRequest_DeletedRecordDiscardsResult(t *testing.T) {
	storage := newFakeProductStorage()
	require.NoError(t, storage.SaveProduct(context.Background(), newTestProduct("prod_1")))

	block := make(chan struct{})
	completion := &fakeCompletion{
		block:   block,
		replies: map[string]string{"output only a single integer": "42"},
	}
	svc := newTestService(storage, completion)

	require.NoError(t, svc.Request(context.Background(), "prod_1", []models.EnrichmentField{models.FieldRiskScore}, false))
	require.NoError(t, storage.DeleteProduct(context.Background(), "prod_1"))
	close(block)
	svc.Wait("prod_1")

	// The record stays deleted; no resurrection from the in-flight result.
	_, err := storage.GetProduct(context.Background(), "prod_1")
	assert.ErrorIs(t, err, interfaces.ErrProductNotFound)
}

func TestRequest_EmptyIngredients(t *testing.T) {
	storage := newFakeProductStorage()
	product := newTestProduct("prod_1")
	product.Ingredients = models.TextUnknown
	require.NoError(t, storage.SaveProduct(context.Background(), product))

	completion := &fakeCompletion{}
	svc := newTestService(storage, completion)

	fields := []models.EnrichmentField{models.FieldExplanations, models.FieldRiskScore}
	require.NoError(t, svc.Request(context.Background(), "prod_1", fields, false))
	svc.Wait("prod_1")

	stored, _ := storage.GetProduct(context.Background(), "prod_1")
	assert.Equal(t, models.EnrichmentSucceeded, stored.Enrichment.Explanations)
	assert.Equal(t, []string{}, stored.Explanations)
	assert.Equal(t, models.EnrichmentFailed, stored.Enrichment.RiskScore)
	assert.Equal(t, 0, completion.callCount())
}

func TestRequest_UnknownProduct(t *testing.T) {
	svc := newTestService(newFakeProductStorage(), &fakeCompletion{})
	err := svc.Request(context.Background(), "prod_missing", nil, false)
	assert.ErrorIs(t, err, interfaces.ErrProductNotFound)
}

func TestStatus_OverlaysPending(t *testing.T) {
	storage := newFakeProductStorage()
	require.NoError(t, storage.SaveProduct(context.Background(), newTestProduct("prod_1")))

	block := make(chan struct{})
	completion := &fakeCompletion{
		block:   block,
		replies: map[string]string{"output only a single integer": "42"},
	}
	svc := newTestService(storage, completion)

	require.NoError(t, svc.Request(context.Background(), "prod_1", []models.EnrichmentField{models.FieldRiskScore}, false))

	status, err := svc.Status(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrichmentPending, status.RiskScore)
	assert.Equal(t, models.EnrichmentNotRequested, status.Summary)

	close(block)
	svc.Wait("prod_1")

	status, err = svc.Status(context.Background(), "prod_1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrichmentSucceeded, status.RiskScore)
}
