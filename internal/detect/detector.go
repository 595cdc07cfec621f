// Package detect guesses which supported language a text is written in.
package detect

import (
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/koconnect/koconnect/internal/domain"
)

var toLingua = map[domain.Language]lingua.Language{
	domain.Korean:     lingua.Korean,
	domain.English:    lingua.English,
	domain.Japanese:   lingua.Japanese,
	domain.Chinese:    lingua.Chinese,
	domain.Vietnamese: lingua.Vietnamese,
}

// Detector maps lingua's verdict back onto the supported language set.
type Detector struct {
	detector lingua.LanguageDetector
	fromLang map[lingua.Language]domain.Language
}

// New builds a detector restricted to the given languages. Languages lingua
// does not know are ignored. It returns nil when fewer than two known
// languages remain, since lingua needs at least two candidates.
func New(languages []domain.Language) *Detector {
	fromLang := make(map[lingua.Language]domain.Language)
	candidates := make([]lingua.Language, 0, len(languages))
	for _, l := range languages {
		if ll, ok := toLingua[l]; ok {
			if _, dup := fromLang[ll]; !dup {
				candidates = append(candidates, ll)
				fromLang[ll] = l
			}
		}
	}
	if len(candidates) < 2 {
		return nil
	}

	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(candidates...).Build(),
		fromLang: fromLang,
	}
}

// Detect returns the most likely language of text.
func (d *Detector) Detect(text string) (domain.Language, bool) {
	if d == nil {
		return "", false
	}
	clean := strings.TrimSpace(text)
	if clean == "" {
		return "", false
	}
	ll, ok := d.detector.DetectLanguageOf(clean)
	if !ok {
		return "", false
	}
	lang, ok := d.fromLang[ll]
	return lang, ok
}
