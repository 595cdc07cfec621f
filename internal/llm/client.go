// Package llm is the single point of coupling to the hosted model API: chat
// completions for translation and style rewriting, and the Responses endpoint
// for image text extraction.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/logger"
)

// CredentialName is reported when the API key is missing.
const CredentialName = "OPENAI_API_KEY"

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered chat message list.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer is what the routers need from a completion backend.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts ...Option) (string, error)
}

type callOptions struct {
	model          string
	temperature    float64
	hasTemperature bool
}

// Option adjusts a single Complete call.
type Option func(*callOptions)

// WithModel overrides the configured model for one call.
func WithModel(model string) Option {
	return func(o *callOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTemperature overrides the configured temperature for one call.
func WithTemperature(t float64) Option {
	return func(o *callOptions) {
		o.temperature = t
		o.hasTemperature = true
	}
}

// WithoutTemperature sends the request without a temperature parameter.
func WithoutTemperature() Option {
	return func(o *callOptions) {
		o.hasTemperature = false
	}
}

// Config configures Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client wraps the hosted chat completion endpoint. Construct it once and
// reuse it for every call.
type Client struct {
	cfg Config
	api openai.Client
	log logger.Logger
}

// NewClient creates a completion client. A missing API key is reported by
// Complete, not here.
func NewClient(cfg Config, log logger.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The only retry is the temperature fallback below.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		cfg: cfg,
		api: openai.NewClient(opts...),
		log: logger.OrNop(log).With(map[string]interface{}{"component": "llm"}),
	}
}

// Complete sends messages and returns the first choice's content, trimmed.
// If the model rejects the temperature parameter, the identical request is
// retried once without it. Every other failure is returned as an upstream error.
func (c *Client) Complete(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperr.NewMissingCredentialError(CredentialName)
	}

	call := callOptions{model: c.cfg.Model, temperature: c.cfg.Temperature, hasTemperature: true}
	for _, opt := range opts {
		opt(&call)
	}
	if call.model == "" {
		return "", apperr.NewMissingSettingError("openai.chat_model")
	}

	params, err := buildParams(messages, call)
	if err != nil {
		return "", err
	}

	start := time.Now()
	content, err := c.create(ctx, params)
	if err != nil && call.hasTemperature && isTemperatureUnsupported(err) {
		c.log.Warn("model rejected temperature, retrying without it", map[string]interface{}{
			"model":       call.model,
			"temperature": call.temperature,
		})
		call.hasTemperature = false
		if params, err = buildParams(messages, call); err == nil {
			content, err = c.create(ctx, params)
		}
	}
	if err != nil {
		c.log.Error("completion failed", map[string]interface{}{
			"model": call.model,
			"error": err.Error(),
		})
		return "", apperr.NewCompletionFailedError(err)
	}

	c.log.Debug("completion succeeded", map[string]interface{}{
		"model":      call.model,
		"messages":   len(messages),
		"outputLen":  len(content),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return content, nil
}

func (c *Client) create(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildParams(messages []Message, call callOptions) (openai.ChatCompletionNewParams, error) {
	if len(messages) == 0 {
		return openai.ChatCompletionNewParams{}, apperr.NewInvalidInputError("at least one message is required")
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			return openai.ChatCompletionNewParams{}, apperr.NewInvalidInputError(
				fmt.Sprintf("message %d has unsupported role %q", i, m.Role))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(call.model),
		Messages: msgs,
	}
	if call.hasTemperature {
		params.Temperature = openai.Float(call.temperature)
	}
	return params, nil
}

// isTemperatureUnsupported recognises the 400 some models return when a
// non-default temperature is sent.
func isTemperatureUnsupported(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(strings.Join([]string{apiErr.Message, apiErr.Param, apiErr.Code, err.Error()}, " "))
	return strings.Contains(msg, "temperature") && strings.Contains(msg, "unsupported")
}
