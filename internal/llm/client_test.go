package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hualin/feishu-weather-bot/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newClient(baseURL string, maxAttempts int) *llm.Client {
	return llm.NewClient(llm.Options{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "gpt-3.5-turbo",
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
	}, discardLogger())
}

func TestComplete_SendsSystemAndUserMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 150, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "你是助手", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		_, _ = w.Write([]byte(completionBody("回答")))
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/v1", 1)
	got, err := c.Complete(context.Background(), "你是助手", "问题", 150)

	require.NoError(t, err)
	assert.Equal(t, "回答", got)
}

func TestComplete_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(completionBody("第三次成功")))
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/v1", 5)
	got, err := c.Complete(context.Background(), "s", "u", 10)

	require.NoError(t, err)
	assert.Equal(t, "第三次成功", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestComplete_ExhaustsRetriesAndFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/v1", 3)
	_, err := c.Complete(context.Background(), "s", "u", 10)

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "one call per attempt")
}

func TestComplete_EmptyChoicesIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/v1", 1)
	_, err := c.Complete(context.Background(), "s", "u", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
