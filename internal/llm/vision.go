package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/logger"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// VisionConfig configures VisionClient.
type VisionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// VisionClient sends one multimodal request per image to the Responses
// endpoint.
type VisionClient struct {
	cfg  VisionConfig
	http *resty.Client
	log  logger.Logger
}

// NewVisionClient creates a vision client.
func NewVisionClient(cfg VisionConfig, log logger.Logger) *VisionClient {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &VisionClient{
		cfg:  cfg,
		http: c,
		log:  logger.OrNop(log).With(map[string]interface{}{"component": "vision"}),
	}
}

// Configured reports whether a credential is present.
func (c *VisionClient) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

type responsesRequest struct {
	Model string          `json:"model"`
	Input []responseInput `json:"input"`
}

type responseInput struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type responsesPayload struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text returns output_text, or the output segments' text joined by newlines
// in emission order when output_text is empty.
func (p responsesPayload) text() string {
	if s := strings.TrimSpace(p.OutputText); s != "" {
		return s
	}
	var parts []string
	for _, item := range p.Output {
		for _, c := range item.Content {
			if strings.TrimSpace(c.Text) != "" {
				parts = append(parts, c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// DataURI encodes image bytes as a base64 data URI.
func DataURI(mimeType string, image []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// ExtractText asks the model for the text in image. An empty string means the
// model found no text.
func (c *VisionClient) ExtractText(ctx context.Context, instruction string, image []byte, mimeType string) (string, error) {
	if !c.Configured() {
		return "", apperr.NewMissingCredentialError(CredentialName)
	}
	if c.cfg.Model == "" {
		return "", apperr.NewMissingSettingError("openai.vision_model")
	}

	body := responsesRequest{
		Model: c.cfg.Model,
		Input: []responseInput{{
			Role: "user",
			Content: []inputContent{
				{Type: "input_text", Text: instruction},
				{Type: "input_image", ImageURL: DataURI(mimeType, image)},
			},
		}},
	}

	var payload responsesPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.APIKey).
		SetBody(body).
		SetResult(&payload).
		Post("/responses")
	if err != nil {
		c.log.Error("vision request failed", map[string]interface{}{"error": err.Error()})
		return "", apperr.NewVisionFailedError(err)
	}
	if resp.IsError() {
		err := fmt.Errorf("responses: %s; body: %s", resp.Status(), abbreviate(resp.String(), 2000))
		c.log.Error("vision request rejected", map[string]interface{}{"status": resp.StatusCode()})
		return "", apperr.NewVisionFailedError(err)
	}

	text := payload.text()
	c.log.Debug("vision request succeeded", map[string]interface{}{
		"imageBytes": len(image),
		"outputLen":  len(text),
	})
	return text, nil
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
