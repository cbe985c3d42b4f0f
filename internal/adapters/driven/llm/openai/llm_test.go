package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
)

func newTestService(t *testing.T, h http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewLLMService(domain.LLMConfig{APIKey: "sk", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return s
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(domain.LLMConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewLLMService_Defaults(t *testing.T) {
	s, err := NewLLMService(domain.LLMConfig{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLLMModel, s.ModelName())
	assert.Equal(t, domain.DefaultLLMBaseURL, s.baseURL)
}

func TestChat(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.DefaultLLMModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, 256, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  The answer. \n"},"finish_reason":"stop"}]}`))
	})

	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "question"},
	}, driven.ChatOptions{MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "The answer.", out)
}

func TestChat_NonOK(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})

	_, err := s.Chat(context.Background(), nil, driven.ChatOptions{})
	var remote *domain.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusTooManyRequests, remote.StatusCode)
}

func TestChat_NoChoices(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := s.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrRemote)
}

func TestPing(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, s.Ping(context.Background()))
}

func TestPing_Unauthorized(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.ErrorIs(t, s.Ping(context.Background()), domain.ErrRemote)
}
