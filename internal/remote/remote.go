// Package remote wraps the hosted text generation service used to simulate
// execution, answer mentor questions and generate quizzes.
package remote

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNoCredential is returned when no API key is configured. It is detected
// before any request is attempted.
var ErrNoCredential = errors.New("remote service credential not configured")

// FormatHint asks the service for a particular response encoding.
type FormatHint string

const (
	// FormatText requests free-form text.
	FormatText FormatHint = ""
	// FormatJSON requests a JSON document.
	FormatJSON FormatHint = "application/json"
)

// Generator produces text for a prompt.
type Generator interface {
	// Ready reports ErrNoCredential when the generator cannot be used.
	Ready() error
	GenerateText(ctx context.Context, prompt string, hint FormatHint) (string, error)
}

// Check returns ErrNoCredential for a nil generator, otherwise g.Ready().
func Check(g Generator) error {
	if g == nil {
		return ErrNoCredential
	}
	return g.Ready()
}

var fencePattern = regexp.MustCompile("(?m)^```[\\w+#.-]*[ \\t]*\\r?\\n|```[ \\t]*(?:\\r?\\n|$)")

// StripFences removes markdown code fence markers and their language tags
// while keeping the fenced content.
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// StripAllFences removes every fence marker wherever it occurs.
func StripAllFences(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "```", ""))
}
