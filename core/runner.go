package core

import (
	"context"

	"pkt.systems/codelab/schema"
)

// BackendKind names one of the execution strategies.
type BackendKind string

const (
	// BackendScript runs source in the sandboxed script worker.
	BackendScript BackendKind = "script"
	// BackendPreview renders source into a preview document.
	BackendPreview BackendKind = "preview"
	// BackendRemote simulates execution with a text generation model.
	BackendRemote BackendKind = "remote"
)

var backendTable = map[schema.Language]BackendKind{
	schema.LanguageJavaScript: BackendScript,
	schema.LanguageReact:      BackendPreview,
	schema.LanguageNodeJS:     BackendRemote,
	schema.LanguageMongoDB:    BackendRemote,
	schema.LanguagePython:     BackendRemote,
	schema.LanguageJava:       BackendRemote,
	schema.LanguageCPP:        BackendRemote,
}

// BackendFor returns the backend kind that executes lang.
func BackendFor(lang schema.Language) (BackendKind, bool) {
	kind, ok := backendTable[lang]
	return kind, ok
}

// Emitter delivers one output entry from a backend. It is safe to call from
// any goroutine; entries from superseded runs are discarded.
type Emitter func(severity schema.Severity, text string)

// Backend executes one run request. Execute blocks until the run is terminal
// and must stop producing output once ctx is canceled.
type Backend interface {
	Kind() BackendKind
	Execute(ctx context.Context, req schema.RunRequest, emit Emitter) error
}
