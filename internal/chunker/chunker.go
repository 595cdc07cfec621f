// Package chunker estimates token counts and guards model inputs against
// oversized text.
package chunker

import (
	"unicode"

	"github.com/koconnect/koconnect/internal/apperr"
)

// DefaultMaxTokens is the input budget used when none is configured.
const DefaultMaxTokens = 4000

// EstimateTokens estimates the token count for a text.
// Hangul, Han and kana runes count as one token each; everything else
// averages ~4 characters per token.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}

	dense, other := 0, 0
	for _, r := range text {
		if isDense(r) {
			dense++
		} else {
			other++
		}
	}

	tokens := dense + other/4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

func isDense(r rune) bool {
	return unicode.In(r, unicode.Hangul, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// Guard rejects text whose estimate exceeds maxTokens. A non-positive
// maxTokens falls back to DefaultMaxTokens.
func Guard(text string, maxTokens int) error {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if tokens := EstimateTokens(text); tokens > maxTokens {
		return apperr.NewInputTooLargeError(tokens, maxTokens)
	}
	return nil
}
