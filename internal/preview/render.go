// Package preview turns a single UI component source file into a
// self-contained HTML document and tracks the latest render.
package preview

import (
	_ "embed"
	"html/template"
	"regexp"
	"strings"
)

const (
	// DefaultReactVersion is the React UMD build loaded by rendered documents.
	DefaultReactVersion = "18.2.0"
	// DefaultBabelVersion is the standalone Babel build used to transpile at load time.
	DefaultBabelVersion = "7.23.5"
	// SandboxPolicy is the frame sandbox applied to rendered documents.
	SandboxPolicy = "allow-scripts allow-same-origin allow-modals allow-popups allow-forms"
)

//go:embed document.html.tmpl
var documentTemplate string

var documentTmpl = template.Must(template.New("document").Parse(documentTemplate))

var (
	importPattern        = regexp.MustCompile(`(?m)^[ \t]*import\s+(?:[^;'"]*?\s*from\s*)?['"][^'"\n]+['"][ \t]*;?`)
	exportDefaultPattern = regexp.MustCompile(`export\s+default\s+`)
	versionPattern       = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
)

// Options selects the library versions baked into the document.
type Options struct {
	ReactVersion string
	BabelVersion string
}

func (o Options) normalized() Options {
	if !versionPattern.MatchString(o.ReactVersion) {
		o.ReactVersion = DefaultReactVersion
	}
	if !versionPattern.MatchString(o.BabelVersion) {
		o.BabelVersion = DefaultBabelVersion
	}
	return o
}

type documentData struct {
	ReactVersion string
	BabelVersion string
	RenderID     string
	Source       string
}

// Transform strips module imports and rewrites the default export into the
// window.App global.
func Transform(source string) string {
	out := importPattern.ReplaceAllString(source, "")
	if strings.Contains(out, "export default") || exportDefaultPattern.MatchString(out) {
		out = exportDefaultPattern.ReplaceAllString(out, "window.App = ")
	}
	return out
}

// Render assembles the document for source with default options.
func Render(source string) (string, error) {
	return Options{}.Render(source, "")
}

// Render assembles the document for source. renderID is stamped on the body
// so each render is a distinct document.
func (o Options) Render(source, renderID string) (string, error) {
	o = o.normalized()
	var b strings.Builder
	err := documentTmpl.Execute(&b, documentData{
		ReactVersion: o.ReactVersion,
		BabelVersion: o.BabelVersion,
		RenderID:     renderID,
		Source:       Transform(source),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
