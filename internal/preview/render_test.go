package preview

import (
	"strings"
	"testing"
)

func TestTransformStripsImportsAndRewritesDefaultExport(t *testing.T) {
	source := `import React, { useState } from 'react';
import {
  a,
  b
} from "./lib";
import './styles.css';

export default function App() {
  return <div>hi</div>;
}`
	got := Transform(source)
	if strings.Contains(got, "import") {
		t.Fatalf("expected imports stripped, got %q", got)
	}
	if !strings.Contains(got, "window.App = function App()") {
		t.Fatalf("expected default export rewrite, got %q", got)
	}
}

func TestTransformKeepsDynamicImportAndPlainCode(t *testing.T) {
	source := "const App = () => null;\nconst lazy = () => import('./x');"
	if got := Transform(source); got != source {
		t.Fatalf("expected source unchanged, got %q", got)
	}
}

func TestRenderEmbedsLibrariesOverlayAndEscapedSource(t *testing.T) {
	doc, err := Render(`export default () => <p>{"</script><b>"}</p>;`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"react/18.2.0/umd/react.development.min.js",
		"react-dom/18.2.0/umd/react-dom.development.min.js",
		"babel-standalone/7.23.5/babel.min.js",
		"window.onerror",
		"unhandledrejection",
		"'Build Error'",
		"ReactDOM.createRoot",
		"window.App = ",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected document to contain %q", want)
		}
	}
	if strings.Count(doc, "</script>") != 4 {
		t.Fatalf("expected user source to be escaped, got %d closing script tags", strings.Count(doc, "</script>"))
	}
}

func TestRenderIsPure(t *testing.T) {
	a, err := Render("export default () => null;")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render("export default () => null;")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical documents for identical input")
	}
}

func TestOptionsRejectInvalidVersions(t *testing.T) {
	doc, err := Options{ReactVersion: "18.3.1", BabelVersion: "latest\"><script>"}.Render("", "r1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "react/18.3.1/") || !strings.Contains(doc, "babel-standalone/7.23.5/") {
		t.Fatalf("unexpected versions in document")
	}
	if !strings.Contains(doc, `data-render-id="r1"`) {
		t.Fatalf("expected render id on body")
	}
}
