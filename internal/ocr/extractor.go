// Package ocr extracts printed or handwritten text from images through a
// vision-capable model.
package ocr

import (
	"context"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/llm"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/prompts"
)

// Vision is the backend used for extraction. *llm.VisionClient implements it.
type Vision interface {
	Configured() bool
	ExtractText(ctx context.Context, instruction string, image []byte, mimeType string) (string, error)
}

// Extractor turns images into text.
type Extractor struct {
	vision    Vision
	templates *prompts.Registry
	log       logger.Logger
}

// New creates an extractor.
func New(vision Vision, templates *prompts.Registry, log logger.Logger) *Extractor {
	return &Extractor{
		vision:    vision,
		templates: templates,
		log:       logger.OrNop(log).With(map[string]interface{}{"component": "ocr"}),
	}
}

// Extract returns the text in src, which may be anything Load accepts. An
// empty string means the image holds no text and is not an error.
func (e *Extractor) Extract(ctx context.Context, src interface{}) (string, error) {
	img, err := Load(src)
	if err != nil {
		return "", err
	}
	payload, mimeType, err := Prepare(img.Data)
	if err != nil {
		e.log.Warn("image rejected", map[string]interface{}{"name": img.Name, "error": err.Error()})
		return "", err
	}

	if e.vision == nil || !e.vision.Configured() {
		return "", apperr.NewMissingCredentialError(llm.CredentialName)
	}

	tpl, err := e.templates.Lookup(prompts.OpExtract, prompts.ExtractKey)
	if err != nil {
		return "", err
	}
	instruction := tpl.Format(map[string]string{prompts.PlaceholderImageURL: img.Name})

	text, err := e.vision.ExtractText(ctx, instruction, payload, mimeType)
	if err != nil {
		return "", err
	}

	e.log.Info("text extracted", map[string]interface{}{
		"name":    img.Name,
		"bytes":   len(payload),
		"mime":    mimeType,
		"textLen": len(text),
	})
	return text, nil
}
