package codelab

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"pkt.systems/codelab/schema"
)

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiDim    = "\x1b[2m"
)

// Printer writes output channel entries to a terminal. It is also an
// io.Writer so command replies share its lock and never interleave with
// program output mid-line.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewPrinter constructs a printer writing to w.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// OnOutput implements core.EventSink.
func (p *Printer) OnOutput(event schema.OutputEvent) {
	text := event.Text
	if p.color {
		switch {
		case event.Severity == schema.SeverityError:
			text = ansiRed + text + ansiReset
		case event.Severity == schema.SeverityWarn:
			text = ansiYellow + text + ansiReset
		case strings.HasPrefix(text, "CMD:"):
			text = ansiDim + text + ansiReset
		}
	} else if event.Severity != schema.SeverityInfo {
		text = fmt.Sprintf("[%s] %s", event.Severity, text)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, text)
}

// OnStatus implements core.EventSink.
func (p *Printer) OnStatus(schema.StatusEvent) {}

// Write implements io.Writer.
func (p *Printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Write(b)
}
