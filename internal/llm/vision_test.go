package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koconnect/koconnect/internal/apperr"
)

func newVisionServer(t *testing.T, status int, body string, seen *responsesRequest) *VisionClient {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	return NewVisionClient(VisionConfig{APIKey: "sk-test", BaseURL: ts.URL + "/v1/", Model: "gpt-5-mini"}, nil)
}

func TestExtractText_OutputText(t *testing.T) {
	var seen responsesRequest
	c := newVisionServer(t, http.StatusOK, `{"output_text":"  안녕하세요  "}`, &seen)

	got, err := c.ExtractText(context.Background(), "extract", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", got)

	require.Len(t, seen.Input, 1)
	content := seen.Input[0].Content
	require.Len(t, content, 2)
	assert.Equal(t, "input_text", content[0].Type)
	assert.Equal(t, "extract", content[0].Text)
	assert.Equal(t, "input_image", content[1].Type)
	assert.Equal(t, "data:image/png;base64,AQID", content[1].ImageURL)
}

func TestExtractText_FallsBackToOutputSegments(t *testing.T) {
	body := `{"output":[
		{"type":"reasoning","content":[]},
		{"type":"message","content":[{"type":"output_text","text":"첫 줄"},{"type":"output_text","text":"둘째 줄"}]},
		{"type":"message","content":[{"type":"output_text","text":"셋째 줄"}]}
	]}`
	c := newVisionServer(t, http.StatusOK, body, nil)

	got, err := c.ExtractText(context.Background(), "extract", []byte{1}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "첫 줄\n둘째 줄\n셋째 줄", got)
}

func TestExtractText_NoTextIsEmptyString(t *testing.T) {
	c := newVisionServer(t, http.StatusOK, `{"output_text":"","output":[]}`, nil)

	got, err := c.ExtractText(context.Background(), "extract", []byte{1}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestExtractText_UpstreamError(t *testing.T) {
	c := newVisionServer(t, http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`, nil)

	_, err := c.ExtractText(context.Background(), "extract", []byte{1}, "image/png")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, apperr.CodeVisionFailed, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "overloaded")
}

func TestExtractText_MissingCredential(t *testing.T) {
	c := NewVisionClient(VisionConfig{Model: "gpt-5-mini"}, nil)
	assert.False(t, c.Configured())

	_, err := c.ExtractText(context.Background(), "extract", []byte{1}, "image/png")
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}
