// Package style rewrites Korean text into one of the supported prose styles.
package style

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/domain"
	"github.com/koconnect/koconnect/internal/llm"
	"github.com/koconnect/koconnect/internal/logger"
	"github.com/koconnect/koconnect/internal/prompts"
)

// Definition describes one style.
type Definition struct {
	Key         domain.Style `json:"key"`
	Name        string       `json:"name"`
	KoreanLabel string       `json:"koreanLabel"`
}

// Definitions lists the supported styles in display order.
var Definitions = []Definition{
	{domain.StyleFormal, "Formal", "문어체"},
	{domain.StyleInformal, "Informal", "구어체"},
	{domain.StyleBasicVocabulary, "Basic Vocabulary", "쉬운문장"},
	{domain.StyleHanja, "Hanja", "한자어"},
	{domain.StyleNarrative, "Narrative", "서술체"},
	{domain.StyleDescriptive, "Descriptive", "묘사체"},
}

var lookup = func() map[string]domain.Style {
	m := make(map[string]domain.Style, len(Definitions)*3)
	for _, d := range Definitions {
		m[fold(string(d.Key))] = d.Key
		m[fold(d.Name)] = d.Key
		m[d.KoreanLabel] = d.Key
	}
	return m
}()

func fold(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	// Casers are stateful, so each call gets its own.
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// Names returns the English display names in display order.
func Names() []string {
	names := make([]string, len(Definitions))
	for i, d := range Definitions {
		names[i] = d.Name
	}
	return names
}

// Parse maps a style name in any case, its key or its Korean label onto the
// canonical style.
func Parse(name string) (domain.Style, error) {
	if s, ok := lookup[strings.TrimSpace(name)]; ok {
		return s, nil
	}
	if s, ok := lookup[fold(name)]; ok {
		return s, nil
	}
	return "", apperr.NewUnsupportedStyleError(name, Names())
}

// Router applies style templates through a completion backend.
type Router struct {
	completer llm.Completer
	templates *prompts.Registry
	log       logger.Logger
}

// New creates a style router.
func New(completer llm.Completer, templates *prompts.Registry, log logger.Logger) *Router {
	return &Router{
		completer: completer,
		templates: templates,
		log:       logger.OrNop(log).With(map[string]interface{}{"component": "style"}),
	}
}

// Transform rewrites text in the named style. The style is validated before
// any backend call.
func (r *Router) Transform(ctx context.Context, text, name string) (string, domain.Style, error) {
	s, err := Parse(name)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", "", apperr.NewInvalidInputError("text is required")
	}

	tpl, err := r.templates.Lookup(prompts.OpStyle, prompts.StyleKey(s))
	if err != nil {
		return "", "", err
	}

	out, err := r.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.StyleSystemRole},
		{Role: llm.RoleUser, Content: tpl.FormatText(text)},
	})
	if err != nil {
		return "", "", err
	}

	r.log.Info("style applied", map[string]interface{}{"style": s, "inputLen": len(text)})
	return strings.TrimSpace(out), s, nil
}
