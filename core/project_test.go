package core

import (
	"errors"
	"testing"

	"pkt.systems/codelab/schema"
)

func TestProjectDeleteActiveReassigns(t *testing.T) {
	p, err := NewProjectFromFiles(schema.LanguageJavaScript, map[string]string{"a.js": "1", "b.js": "2"}, "a.js")
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	if err := p.Delete("a.js"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p.Active() != "b.js" {
		t.Fatalf("expected active b.js, got %q", p.Active())
	}
	if _, ok := p.Source(p.Active()); !ok {
		t.Fatalf("active file points at a missing key")
	}
	if err := p.Delete("b.js"); !errors.Is(err, ErrLastFile) {
		t.Fatalf("expected ErrLastFile, got %v", err)
	}
	if len(p.Files()) != 1 {
		t.Fatalf("expected one file to remain, got %v", p.Files())
	}
}

func TestProjectDeleteInactiveKeepsActive(t *testing.T) {
	p, err := NewProjectFromFiles(schema.LanguageNodeJS, map[string]string{"index.js": "", "util.js": "", "z.js": ""}, "z.js")
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	if err := p.Delete("util.js"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p.Active() != "z.js" {
		t.Fatalf("expected active to stay z.js, got %q", p.Active())
	}
	if err := p.Delete("missing.js"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestProjectCreateSelectWrite(t *testing.T) {
	p := NewProject(schema.LanguageReact)
	if p.Active() != "App.jsx" {
		t.Fatalf("expected default App.jsx, got %q", p.Active())
	}
	if err := p.Create("Button.jsx"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Active() != "Button.jsx" {
		t.Fatalf("expected new file to be active, got %q", p.Active())
	}
	if err := p.Create("Button.jsx"); !errors.Is(err, ErrFileExists) {
		t.Fatalf("expected ErrFileExists, got %v", err)
	}
	if err := p.Create("dir/x.jsx"); !errors.Is(err, schema.ErrInvalidFilename) {
		t.Fatalf("expected ErrInvalidFilename, got %v", err)
	}
	if err := p.Write("Button.jsx", "export default () => null"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := p.Select("App.jsx"); err != nil {
		t.Fatalf("select: %v", err)
	}
	req := p.Snapshot()
	if err := req.Validate(); err != nil {
		t.Fatalf("snapshot invalid: %v", err)
	}
	if req.Files["Button.jsx"] != "export default () => null" {
		t.Fatalf("unexpected snapshot files: %+v", req.Files)
	}
	req.Files["App.jsx"] = "mutated"
	if src, _ := p.Source("App.jsx"); src == "mutated" {
		t.Fatalf("snapshot must not alias project state")
	}
}

func TestProjectReset(t *testing.T) {
	p := NewProject(schema.LanguageJavaScript)
	_ = p.Create("extra.js")
	p.Reset(schema.LanguagePython)
	if p.Language() != schema.LanguagePython {
		t.Fatalf("expected python, got %q", p.Language())
	}
	files := p.Files()
	if len(files) != 1 || files[0] != "main.py" || p.Active() != "main.py" {
		t.Fatalf("unexpected files after reset: %v (active %q)", files, p.Active())
	}
}
