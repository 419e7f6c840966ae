package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/store"
)

var testCompletionOptions = CompletionOptions{
	Model:       "google/gemini-2.5-flash",
	Temperature: 0.7,
	MaxTokens:   1000,
}

func TestGatewayCompletion_RequestShape(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`))
	}))
	defer srv.Close()

	g := NewGatewayCompletion(srv.URL, "secret-key", testCompletionOptions, srv.Client(), zap.NewNop())
	reply, err := g.Complete(context.Background(), CompletionRequest{
		System: "sys",
		History: []store.Turn{
			{Role: store.RoleUser, Content: "hi"},
			{Role: store.RoleAssistant, Content: "hello"},
		},
		Message: "what now?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)

	assert.Equal(t, "google/gemini-2.5-flash", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-6)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.Equal(t, []chatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "what now?"},
	}, got.Messages)
}

func TestGatewayCompletion_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	g := NewGatewayCompletion(srv.URL, "k", testCompletionOptions, srv.Client(), zap.NewNop())
	_, err := g.Complete(context.Background(), CompletionRequest{System: "s", Message: "m"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, "rate limited", upstream.Body)
	assert.Equal(t, "AI API error (status 429): rate limited", upstream.Error())
}

func TestGatewayCompletion_MalformedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `<html>oops</html>`,
		"no choices": `{"choices":[]}`,
		"no content": `{"choices":[{"message":{"role":"assistant"}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			g := NewGatewayCompletion(srv.URL, "k", testCompletionOptions, srv.Client(), zap.NewNop())
			_, err := g.Complete(context.Background(), CompletionRequest{System: "s", Message: "m"})

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, http.StatusOK, upstream.Status)
			assert.Error(t, upstream.Err)
		})
	}
}

func TestGatewayCompletion_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGatewayCompletion(url, "k", testCompletionOptions, nil, zap.NewNop())
	_, err := g.Complete(context.Background(), CompletionRequest{System: "s", Message: "m"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Zero(t, upstream.Status)
}

func TestGeminiHelpers(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", geminiModelName("google/gemini-2.5-flash"))
	assert.Equal(t, "gemini-1.5-pro", geminiModelName("gemini-1.5-pro"))
	assert.Equal(t, "model", geminiRole(store.RoleAssistant))
	assert.Equal(t, "user", geminiRole(store.RoleUser))
}
