// Package validate holds the cheap, local checks that gate every
// generation request: prompt shape, credential presence and the closed
// set of supported frameworks.
//
// All functions are pure and safe for concurrent use.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinPromptLength is the minimum trimmed prompt length, in characters.
	MinPromptLength = 10
	// MaxPromptLength is the maximum trimmed prompt length, in characters.
	MaxPromptLength = 1000

	// PlaceholderCredential is the value shipped in example env files.
	// It is treated the same as a missing key.
	PlaceholderCredential = "your_actual_api_key_here"
)

var (
	ErrEmptyPrompt       = errors.New("please describe your component first")
	ErrTooShort          = errors.New("please provide a more detailed description (at least 10 characters)")
	ErrTooLong           = errors.New("description is too long (maximum 1000 characters)")
	ErrMissingCredential = errors.New("API key is missing or invalid")
)

// scriptTagPattern matches <script ...>...</script> spans, case-insensitively,
// across newlines. It is a string filter, not an HTML parser.
var scriptTagPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)

// Prompt trims text and checks its length. On success it returns the
// trimmed text with embedded script blocks removed.
//
// Stripping is a minimal mitigation against reflected markup; it is not a
// security boundary.
func Prompt(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)

	switch {
	case n == 0:
		return "", ErrEmptyPrompt
	case n < MinPromptLength:
		return "", ErrTooShort
	case n > MaxPromptLength:
		return "", ErrTooLong
	}

	return scriptTagPattern.ReplaceAllString(trimmed, ""), nil
}

// Credential reports ErrMissingCredential when value is empty, blank or
// the placeholder sentinel.
func Credential(value string) error {
	v := strings.TrimSpace(value)
	if v == "" || v == PlaceholderCredential {
		return ErrMissingCredential
	}
	return nil
}
