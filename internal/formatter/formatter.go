// Package formatter pretty-prints sources of the script language family.
package formatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"pkt.systems/codelab/schema"
)

var (
	// ErrUnsupported is returned for languages without a formatter.
	ErrUnsupported = errors.New("formatting not supported for language")
	// ErrHasComments is returned when the source carries comments the
	// printer would drop.
	ErrHasComments = errors.New("source contains comments")
)

// Format returns source pretty-printed for lang. Formatting is best effort:
// on any failure the original source is returned together with the cause.
func Format(lang schema.Language, source string) (string, error) {
	if !lang.Formattable() {
		return source, ErrUnsupported
	}
	if strings.TrimSpace(source) == "" {
		return source, nil
	}
	if hasComments(source, lang == schema.LanguageReact) {
		return source, ErrHasComments
	}
	loader := api.LoaderJS
	if lang == schema.LanguageReact {
		loader = api.LoaderJSX
	}
	result := api.Transform(source, api.TransformOptions{
		Loader:  loader,
		JSX:     api.JSXPreserve,
		Charset: api.CharsetUTF8,
		Target:  api.ESNext,
	})
	if len(result.Errors) > 0 {
		return source, syntaxError(result.Errors[0])
	}
	return string(result.Code), nil
}

func syntaxError(msg api.Message) error {
	if msg.Location == nil {
		return fmt.Errorf("format: %s", msg.Text)
	}
	return fmt.Errorf("format: %d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text)
}
