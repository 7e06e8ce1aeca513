package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

func newTestOpenAIService(baseURL string) *OpenAIService {
	return &OpenAIService{
		config: &common.OpenAIConfig{
			BaseURL:     baseURL,
			Model:       "gpt-4",
			Temperature: 0.3,
		},
		logger:     common.GetLogger(),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiKey:     "test-key",
		timeout:    5 * time.Second,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
}

func TestOpenAIChat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4", req["model"])

		messages := req["messages"].([]any)
		require.Len(t, messages, 2)
		first := messages[0].(map[string]any)
		assert.Equal(t, "system", first["role"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"57"}}]}`))
	}))
	defer server.Close()

	svc := newTestOpenAIService(server.URL)
	reply, err := svc.Chat(context.Background(), []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: "You score things."},
		{Role: interfaces.RoleUser, Content: "Score this."},
	})
	require.NoError(t, err)
	assert.Equal(t, "57", reply)
}

func TestOpenAIChat_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	svc := newTestOpenAIService(server.URL)
	_, err := svc.Chat(context.Background(), []interfaces.Message{{Role: interfaces.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestOpenAIChat_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	svc := newTestOpenAIService(server.URL)
	_, err := svc.Chat(context.Background(), []interfaces.Message{{Role: interfaces.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenAIChat_MissingContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	svc := newTestOpenAIService(server.URL)
	_, err := svc.Chat(context.Background(), []interfaces.Message{{Role: interfaces.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestOpenAIChat_EmptyMessages(t *testing.T) {
	svc := newTestOpenAIService("http://localhost:0")
	_, err := svc.Chat(context.Background(), nil)
	assert.Error(t, err)
}

func TestConvertMessagesToClaude(t *testing.T) {
	messages := []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: "be helpful"},
		{Role: interfaces.RoleUser, Content: "hello"},
		{Role: interfaces.RoleAssistant, Content: "hi"},
	}

	converted, system, err := convertMessagesToClaude(messages)
	require.NoError(t, err)
	assert.Equal(t, "be helpful", system)
	assert.Len(t, converted, 2)

	_, _, err = convertMessagesToClaude([]interfaces.Message{{Role: interfaces.RoleSystem, Content: "only system"}})
	assert.Error(t, err)

	_, _, err = convertMessagesToClaude(nil)
	assert.Error(t, err)
}
