package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/logger"
)

const temperatureRejection = `{"error":{"message":"Unsupported value: 'temperature' does not support 0.7 with this model. Only the default (1) value is supported.","type":"invalid_request_error","param":"temperature","code":"unsupported_value"}}`

// chatServer records decoded request bodies and replies with the scripted
// responses in order; the last one repeats.
type chatServer struct {
	mu       sync.Mutex
	requests []map[string]interface{}
	replies  []reply
}

type reply struct {
	status int
	body   string
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-5-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	idx := len(s.requests)
	s.requests = append(s.requests, body)
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	rep := s.replies[idx]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func newTestClient(t *testing.T, replies ...reply) (*Client, *chatServer) {
	t.Helper()
	srv := &chatServer{replies: replies}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c := NewClient(Config{
		APIKey:      "sk-test",
		BaseURL:     ts.URL + "/v1/",
		Model:       "gpt-5-mini",
		Temperature: 0.7,
	}, logger.NewTestLogger(t))
	return c, srv
}

var testMessages = []Message{
	{Role: RoleSystem, Content: "system"},
	{Role: RoleUser, Content: "hello"},
}

func TestComplete_TrimsFirstChoice(t *testing.T) {
	c, srv := newTestClient(t, reply{http.StatusOK, completionBody("  안녕하세요 \n")})

	got, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", got)

	require.Len(t, srv.requests, 1)
	req := srv.requests[0]
	assert.Equal(t, "gpt-5-mini", req["model"])
	assert.InDelta(t, 0.7, req["temperature"], 1e-9)
	msgs, ok := req["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestComplete_RetriesOnceWithoutTemperature(t *testing.T) {
	c, srv := newTestClient(t,
		reply{http.StatusBadRequest, temperatureRejection},
		reply{http.StatusOK, completionBody("ok")},
	)

	got, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	require.Len(t, srv.requests, 2)
	assert.Contains(t, srv.requests[0], "temperature")
	assert.NotContains(t, srv.requests[1], "temperature")
	assert.Equal(t, srv.requests[0]["messages"], srv.requests[1]["messages"])
	assert.Equal(t, srv.requests[0]["model"], srv.requests[1]["model"])
}

func TestComplete_SecondFailurePropagates(t *testing.T) {
	c, srv := newTestClient(t,
		reply{http.StatusBadRequest, temperatureRejection},
		reply{http.StatusBadRequest, `{"error":{"message":"still broken","type":"invalid_request_error"}}`},
	)

	_, err := c.Complete(context.Background(), testMessages)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Len(t, srv.requests, 2, "exactly one retry")
}

func TestComplete_OtherFailuresAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		rep  reply
	}{
		{"bad request unrelated to temperature", reply{http.StatusBadRequest, `{"error":{"message":"context length exceeded","type":"invalid_request_error"}}`}},
		{"server error", reply{http.StatusInternalServerError, `{"error":{"message":"unsupported temperature?","type":"server_error"}}`}},
		{"unauthorized", reply{http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(t, tt.rep)

			_, err := c.Complete(context.Background(), testMessages)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeCompletionFailed, apperr.CodeOf(err))
			assert.Len(t, srv.requests, 1)
		})
	}
}

func TestComplete_WithoutTemperatureSkipsRetry(t *testing.T) {
	c, srv := newTestClient(t, reply{http.StatusOK, completionBody("ok")})

	_, err := c.Complete(context.Background(), testMessages, WithoutTemperature(), WithModel("other-model"))
	require.NoError(t, err)
	require.Len(t, srv.requests, 1)
	assert.NotContains(t, srv.requests[0], "temperature")
	assert.Equal(t, "other-model", srv.requests[0]["model"])
}

func TestComplete_ValidationBeforeNetwork(t *testing.T) {
	c, srv := newTestClient(t, reply{http.StatusOK, completionBody("ok")})

	_, err := c.Complete(context.Background(), nil)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	_, err = c.Complete(context.Background(), []Message{{Role: "tool", Content: "x"}})
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	assert.Empty(t, srv.requests)
}

func TestComplete_MissingCredential(t *testing.T) {
	c := NewClient(Config{Model: "gpt-5-mini"}, nil)

	_, err := c.Complete(context.Background(), testMessages)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	assert.Equal(t, apperr.CodeMissingCredential, apperr.CodeOf(err))
}
