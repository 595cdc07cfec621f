// Package diff finds word-level changes between an original text and its
// transformed version.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/koconnect/koconnect/internal/domain"
)

// Compare diffs original and transformed token by token at equal indices.
//
// The first pass walks transformed: a token past the end of original is
// added, a differing token is modified. The second pass walks original and
// reports every differing or trailing token as removed. Because tokens are
// matched by index, one inserted word shifts everything after it and each
// following token is reported as modified. Use Aligned for an insertion-aware
// diff.
func Compare(original, transformed string) []domain.ChangeEntry {
	orig := strings.Fields(original)
	trans := strings.Fields(transformed)

	var changes []domain.ChangeEntry
	for i, word := range trans {
		switch {
		case i >= len(orig):
			changes = append(changes, domain.ChangeEntry{Word: word, Action: domain.ActionAdded})
		case word != orig[i]:
			changes = append(changes, domain.ChangeEntry{Word: word, Action: domain.ActionModified, Counterpart: ptr(orig[i])})
		}
	}
	for i, word := range orig {
		switch {
		case i >= len(trans):
			changes = append(changes, domain.ChangeEntry{Word: word, Action: domain.ActionRemoved})
		case word != trans[i]:
			changes = append(changes, domain.ChangeEntry{Word: word, Action: domain.ActionRemoved, Counterpart: ptr(trans[i])})
		}
	}
	return changes
}

func ptr(s string) *string { return &s }

// ChangedWords returns the distinct words of Compare in first-occurrence order.
func ChangedWords(original, transformed string) []string {
	return Unique(Compare(original, transformed))
}

// Unique returns the distinct non-empty words of changes in order.
func Unique(changes []domain.ChangeEntry) []string {
	seen := make(map[string]bool, len(changes))
	var words []string
	for _, c := range changes {
		if c.Word == "" || seen[c.Word] {
			continue
		}
		seen[c.Word] = true
		words = append(words, c.Word)
	}
	return words
}

// WordList projects changes onto {word, action} pairs.
func WordList(changes []domain.ChangeEntry) []domain.WordAction {
	out := make([]domain.WordAction, len(changes))
	for i, c := range changes {
		out[i] = domain.WordAction{Word: c.Word, Action: c.Action}
	}
	return out
}

// Aligned diffs the two texts with a minimal word alignment. Unlike Compare it
// only reports added and removed words, in document order.
func Aligned(original, transformed string) []domain.ChangeEntry {
	dmp := diffmatchpatch.New()

	// One word per line lets the line-mode reduction treat words as symbols.
	a, b, lineArray := dmp.DiffLinesToChars(wordLines(original), wordLines(transformed))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var changes []domain.ChangeEntry
	for _, d := range diffs {
		var action domain.ChangeAction
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			action = domain.ActionAdded
		case diffmatchpatch.DiffDelete:
			action = domain.ActionRemoved
		default:
			continue
		}
		for _, word := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if word != "" {
				changes = append(changes, domain.ChangeEntry{Word: word, Action: action})
			}
		}
	}
	return changes
}

func wordLines(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, "\n") + "\n"
}
