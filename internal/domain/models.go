// Package domain contains the core domain types for the Ko-Connect language tools.
package domain

import "time"

// Language is a canonical language name such as "Korean" or "English".
type Language string

// Supported languages. Korean is the anchor language: every prompt template
// translates into or out of it.
const (
	Korean     Language = "Korean"
	English    Language = "English"
	Japanese   Language = "Japanese"
	Chinese    Language = "Chinese"
	Vietnamese Language = "Vietnamese"

	// Auto asks the router to detect the source language.
	Auto Language = "auto"
)

// KnownLanguages lists every language a deployment may enable.
var KnownLanguages = []Language{Korean, English, Japanese, Chinese, Vietnamese}

// Style is a canonical Korean prose style key such as "formal".
type Style string

// Supported styles.
const (
	StyleFormal          Style = "formal"
	StyleInformal        Style = "informal"
	StyleBasicVocabulary Style = "basic_vocabulary"
	StyleHanja           Style = "hanja"
	StyleNarrative       Style = "narrative"
	StyleDescriptive     Style = "descriptive"
)

// HistoryRecord is one completed translate (+ optional style) run.
// Records are immutable once created.
type HistoryRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	SourceLanguage Language  `json:"sourceLanguage"`
	TargetLanguage Language  `json:"targetLanguage"`
	InputText      string    `json:"inputText"`
	OutputText     string    `json:"outputText"`
	AppliedStyle   Style     `json:"appliedStyle,omitempty"` // empty when no style was applied
}

// HasStyle reports whether the output went through the style router.
func (r HistoryRecord) HasStyle() bool {
	return r.AppliedStyle != ""
}

// Equal reports value equality. Timestamps are compared as instants.
func (r HistoryRecord) Equal(other HistoryRecord) bool {
	return r.ID == other.ID &&
		r.Timestamp.Equal(other.Timestamp) &&
		r.SourceLanguage == other.SourceLanguage &&
		r.TargetLanguage == other.TargetLanguage &&
		r.InputText == other.InputText &&
		r.OutputText == other.OutputText &&
		r.AppliedStyle == other.AppliedStyle
}

// ChangeAction classifies a token-level difference.
type ChangeAction string

const (
	ActionAdded    ChangeAction = "added"
	ActionModified ChangeAction = "modified"
	ActionRemoved  ChangeAction = "removed"
)

// ChangeEntry is one token-level difference between an original and a
// transformed text. Counterpart is the token at the same index in the other
// text; it is nil past the end of the shorter text.
type ChangeEntry struct {
	Word        string       `json:"word"`
	Action      ChangeAction `json:"action"`
	Counterpart *string      `json:"counterpart,omitempty"`
}

// WordAction is the reduced {word, action} view of a ChangeEntry.
type WordAction struct {
	Word   string       `json:"word"`
	Action ChangeAction `json:"action"`
}
