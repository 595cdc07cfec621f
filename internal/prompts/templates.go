// Package prompts holds the prompt template registry. Templates are keyed by
// operation and a typed key; lookups of unknown keys are configuration errors.
package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koconnect/koconnect/internal/apperr"
	"github.com/koconnect/koconnect/internal/domain"
)

// Operation selects a template table.
type Operation string

const (
	OpTranslate Operation = "translate"
	OpStyle     Operation = "style"
	OpExtract   Operation = "extract"
)

// Key identifies a template within an operation.
type Key string

// PairKey is the typed key for a translation direction.
type PairKey struct {
	Source domain.Language
	Target domain.Language
}

// Key renders the pair as "<source>_to_<target>" in lower case.
func (p PairKey) Key() Key {
	return Key(strings.ToLower(string(p.Source)) + "_to_" + strings.ToLower(string(p.Target)))
}

// StyleKey is the typed key for a style template.
func StyleKey(s domain.Style) Key {
	return Key(s)
}

// ExtractKey is the single image-text extraction template.
const ExtractKey Key = "image_text"

// Placeholders understood by Template.Format.
const (
	PlaceholderText     = "text"
	PlaceholderImageURL = "image_url"
)

// Template is an immutable prompt with {name} placeholders.
type Template string

// Format substitutes every {name} placeholder present in vars. Unknown
// placeholders are left as-is.
func (t Template) Format(vars map[string]string) string {
	if len(vars) == 0 {
		return string(t)
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(vars)*2)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(string(t))
}

// FormatText substitutes {text}.
func (t Template) FormatText(text string) string {
	return t.Format(map[string]string{PlaceholderText: text})
}

// Entry is one registry row.
type Entry struct {
	Op       Operation
	Key      Key
	Template Template
}

// Registry is a read-only template table.
type Registry struct {
	tables map[Operation]map[Key]Template
}

// NewRegistry builds a registry from entries. Later entries override earlier
// ones with the same operation and key.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{tables: make(map[Operation]map[Key]Template)}
	for _, e := range entries {
		table, ok := r.tables[e.Op]
		if !ok {
			table = make(map[Key]Template)
			r.tables[e.Op] = table
		}
		table[e.Key] = e.Template
	}
	return r
}

// Default returns the registry with the built-in Korean prompt set.
func Default() *Registry {
	return NewRegistry(DefaultEntries()...)
}

// Lookup returns the template for (op, key).
func (r *Registry) Lookup(op Operation, key Key) (Template, error) {
	if t, ok := r.tables[op][key]; ok {
		return t, nil
	}
	return "", apperr.NewTemplateNotFoundError(fmt.Sprintf("%s/%s", op, key))
}

// Has reports whether (op, key) is registered.
func (r *Registry) Has(op Operation, key Key) bool {
	_, ok := r.tables[op][key]
	return ok
}

// Keys lists the registered keys for op in sorted order.
func (r *Registry) Keys(op Operation) []Key {
	table := r.tables[op]
	keys := make([]Key, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
