// Package pipeline runs the full learner flow: optional image extraction,
// translation, Korean style adjustment, history bookkeeping and the
// changed-word summary used for study.
package pipeline

import (
	"context"
	"strings"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/chunker"
	"github.com/koconnect/koconnect/internal/diff"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/history"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/router"
	"github.com/koconnect/koconnect/internal/style"
)

// Translator is implemented by *router.Router.
type Translator interface {
	ResolveLanguage(name string) (domain.Language, error)
	IsValidPair(source, target domain.Language) bool
	Translate(ctx context.Context, text, source, target string) (*router.Result, error)
}

// Styler is implemented by *style.Router.
type Styler interface {
	Transform(ctx context.Context, text, name string) (string, domain.Style, error)
}

// Extractor is implemented by *ocr.Extractor.
type Extractor interface {
	Extract(ctx context.Context, src interface{}) (string, error)
}

// Input is one Process request. Image, when set, replaces Text.
type Input struct {
	Text   string
	Image  interface{}
	Source string
	Target string
	Style  string
}

// Result is the outcome of Process.
type Result struct {
	ExtractedText string                `json:"extractedText,omitempty"`
	NoTextFound   bool                  `json:"noTextFound,omitempty"`
	Source        domain.Language       `json:"sourceLanguage,omitempty"`
	Target        domain.Language       `json:"targetLanguage,omitempty"`
	Detected      bool                  `json:"detected,omitempty"`
	Translation   string                `json:"translation,omitempty"`
	Output        string                `json:"output,omitempty"`
	AppliedStyle  domain.Style          `json:"appliedStyle,omitempty"`
	Record        *domain.HistoryRecord `json:"record,omitempty"`
	ChangedWords  []string              `json:"changedWords,omitempty"`
	WordList      []domain.WordAction   `json:"wordList,omitempty"`
}

// Pipeline wires the routers together.
type Pipeline struct {
	translator Translator
	styler     Styler
	extractor  Extractor
	maxTokens  int
	log        logger.Logger
}

// New creates a pipeline. extractor may be nil when image input is not
// needed.
func New(translator Translator, styler Styler, extractor Extractor, maxTokens int, log logger.Logger) *Pipeline {
	return &Pipeline{
		translator: translator,
		styler:     styler,
		extractor:  extractor,
		maxTokens:  maxTokens,
		log:        logger.OrNop(log).With(map[string]interface{}{"component": "pipeline"}),
	}
}

// Process runs in and appends a record to store on success. Nothing is
// written to store when any step fails or the image holds no text.
func (p *Pipeline) Process(ctx context.Context, store *history.Store, in Input) (*Result, error) {
	source, err := p.translator.ResolveLanguage(in.Source)
	if err != nil {
		return nil, err
	}
	target, err := p.translator.ResolveLanguage(in.Target)
	if err != nil {
		return nil, err
	}
	if target == domain.Auto {
		return nil, apperr.NewInvalidInputError("target language cannot be auto")
	}
	// An auto source is checked once the text is known.
	if source != domain.Auto && !p.translator.IsValidPair(source, target) {
		return nil, apperr.NewUnsupportedLanguagePairError(string(source), string(target))
	}
	// Style only applies to Korean output and is ignored otherwise.
	wantStyle := strings.TrimSpace(in.Style) != "" && target == domain.Korean
	if wantStyle {
		if _, err := style.Parse(in.Style); err != nil {
			return nil, err
		}
	} else if strings.TrimSpace(in.Style) != "" {
		p.log.Debug("style ignored for non-Korean target", map[string]interface{}{"target": target})
	}

	res := &Result{}
	text := in.Text
	if in.Image != nil {
		if p.extractor == nil {
			return nil, apperr.NewInvalidInputError("image input is not available")
		}
		text, err = p.extractor.Extract(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		res.ExtractedText = text
		if strings.TrimSpace(text) == "" {
			res.NoTextFound = true
			return res, nil
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, apperr.NewInvalidInputError("text is required")
	}
	if err := chunker.Guard(text, p.maxTokens); err != nil {
		return nil, err
	}

	tr, err := p.translator.Translate(ctx, text, in.Source, in.Target)
	if err != nil {
		return nil, err
	}
	res.Source, res.Target, res.Detected = tr.Source, tr.Target, tr.Detected
	res.Translation, res.Output = tr.Text, tr.Text

	// A styled result is compared with the Korean it was rewritten from, which
	// equals the input when no translation happened.
	compareFrom := text
	if wantStyle {
		styled, s, err := p.styler.Transform(ctx, tr.Text, in.Style)
		if err != nil {
			return nil, err
		}
		res.Output, res.AppliedStyle = styled, s
		compareFrom = tr.Text
	}

	rec := store.Append(domain.HistoryRecord{
		SourceLanguage: tr.Source,
		TargetLanguage: tr.Target,
		InputText:      text,
		OutputText:     res.Output,
		AppliedStyle:   res.AppliedStyle,
	})
	res.Record = &rec

	changes := diff.Compare(compareFrom, res.Output)
	res.ChangedWords = diff.Unique(changes)
	res.WordList = diff.WordList(changes)

	p.log.Info("processed", map[string]interface{}{
		"source":   tr.Source,
		"target":   tr.Target,
		"style":    res.AppliedStyle,
		"image":    in.Image != nil,
		"recordId": rec.ID,
	})
	return res, nil
}
