// Package router validates translation requests against the supported
// language set and routes them to the matching prompt template.
package router

import (
	"context"
	"strings"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/detect"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/llm"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/prompts"
)

// Display labels accepted alongside canonical language names.
var displayLabels = map[string]domain.Language{
	"한국어":  domain.Korean,
	"영어":   domain.English,
	"일본어":  domain.Japanese,
	"중국어":  domain.Chinese,
	"베트남어": domain.Vietnamese,
}

// Label returns the Korean display label of lang, or its canonical name when
// it has none.
func Label(lang domain.Language) string {
	for label, l := range displayLabels {
		if l == lang {
			return label
		}
	}
	return string(lang)
}

// Router routes translation requests to the completion backend.
type Router struct {
	completer llm.Completer
	templates *prompts.Registry
	detector  *detect.Detector
	log       logger.Logger

	languages []domain.Language // Korean first, then the configured order
	supported map[domain.Language]bool
	byFold    map[string]domain.Language
	routes    map[prompts.PairKey]bool
}

// Option configures a Router.
type Option func(*Router)

// WithDetector enables "auto" source languages.
func WithDetector(d *detect.Detector) Option {
	return func(r *Router) { r.detector = d }
}

// WithLogger sets the router's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) { r.log = l }
}

// Result is a finished translation.
type Result struct {
	Text     string
	Source   domain.Language
	Target   domain.Language
	Detected bool // Source came from auto-detection
}

// New creates a Router supporting Korean plus additional languages. Every
// Korean-anchored direction between them is routable.
func New(completer llm.Completer, templates *prompts.Registry, additional []string, opts ...Option) *Router {
	r := &Router{
		completer: completer,
		templates: templates,
		supported: map[domain.Language]bool{domain.Korean: true},
		byFold:    map[string]domain.Language{strings.ToLower(string(domain.Korean)): domain.Korean},
		routes:    map[prompts.PairKey]bool{},
		languages: []domain.Language{domain.Korean},
	}
	for _, name := range additional {
		lang := domain.Language(strings.TrimSpace(name))
		if lang == "" || r.supported[lang] {
			continue
		}
		r.supported[lang] = true
		r.byFold[strings.ToLower(string(lang))] = lang
		r.languages = append(r.languages, lang)
		r.routes[prompts.PairKey{Source: domain.Korean, Target: lang}] = true
		r.routes[prompts.PairKey{Source: lang, Target: domain.Korean}] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrNop(r.log).With(map[string]interface{}{"component": "router"})
	return r
}

// SupportedLanguages returns the supported languages, Korean first.
func (r *Router) SupportedLanguages() []domain.Language {
	return append([]domain.Language(nil), r.languages...)
}

func (r *Router) supportedNames() []string {
	names := make([]string, len(r.languages))
	for i, l := range r.languages {
		names[i] = string(l)
	}
	return names
}

// ResolveLanguage maps a canonical name (any case), a Korean display label or
// "auto" onto a supported language.
func (r *Router) ResolveLanguage(name string) (domain.Language, error) {
	trimmed := strings.TrimSpace(name)
	if strings.EqualFold(trimmed, string(domain.Auto)) {
		return domain.Auto, nil
	}
	if lang, ok := displayLabels[trimmed]; ok && r.supported[lang] {
		return lang, nil
	}
	if lang, ok := r.byFold[strings.ToLower(trimmed)]; ok {
		return lang, nil
	}
	return "", apperr.NewUnsupportedLanguageError(name, r.supportedNames())
}

// IsValidPair reports whether source -> target can be translated: both
// supported and either identical or a routable direction.
func (r *Router) IsValidPair(source, target domain.Language) bool {
	if !r.supported[source] || !r.supported[target] {
		return false
	}
	return source == target || r.routes[prompts.PairKey{Source: source, Target: target}]
}

// Check verifies that every routable direction has a template.
func (r *Router) Check() error {
	for pair := range r.routes {
		if _, err := r.templates.Lookup(prompts.OpTranslate, pair.Key()); err != nil {
			return err
		}
	}
	return nil
}

// Prepare resolves and validates both languages without any network call.
// An "auto" source is detected from text.
func (r *Router) Prepare(text, source, target string) (domain.Language, domain.Language, bool, error) {
	src, err := r.ResolveLanguage(source)
	if err != nil {
		return "", "", false, err
	}
	tgt, err := r.ResolveLanguage(target)
	if err != nil {
		return "", "", false, err
	}
	if tgt == domain.Auto {
		return "", "", false, apperr.NewUnsupportedLanguageError(target, r.supportedNames())
	}

	detected := false
	if src == domain.Auto {
		lang, ok := r.detector.Detect(text)
		if !ok || !r.supported[lang] {
			return "", "", false, apperr.NewUnsupportedLanguageError(source, r.supportedNames())
		}
		src, detected = lang, true
		r.log.Debug("source language detected", map[string]interface{}{"language": src})
	}

	if src != tgt && !r.routes[prompts.PairKey{Source: src, Target: tgt}] {
		return "", "", false, apperr.NewUnsupportedLanguagePairError(string(src), string(tgt))
	}
	return src, tgt, detected, nil
}

// Translate translates text from source to target. Identical languages return
// text unchanged without calling the backend. The model's reply is returned
// verbatim apart from trimming.
func (r *Router) Translate(ctx context.Context, text, source, target string) (*Result, error) {
	src, tgt, detected, err := r.Prepare(text, source, target)
	if err != nil {
		return nil, err
	}
	if src == tgt {
		return &Result{Text: text, Source: src, Target: tgt, Detected: detected}, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.NewInvalidInputError("text is required")
	}

	tpl, err := r.templates.Lookup(prompts.OpTranslate, prompts.PairKey{Source: src, Target: tgt}.Key())
	if err != nil {
		return nil, err
	}

	out, err := r.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.TranslationSystemRole},
		{Role: llm.RoleUser, Content: tpl.FormatText(text)},
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("translated", map[string]interface{}{
		"source":    src,
		"target":    tgt,
		"inputLen":  len(text),
		"outputLen": len(out),
	})
	return &Result{Text: strings.TrimSpace(out), Source: src, Target: tgt, Detected: detected}, nil
}
