package preview

import (
	"context"
	"fmt"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// Backend renders the active file and publishes it to a Surface.
type Backend struct {
	opts    Options
	surface *Surface
}

// NewBackend constructs a preview backend publishing to surface.
func NewBackend(opts Options, surface *Surface) *Backend {
	if surface == nil {
		surface = NewSurface()
	}
	return &Backend{opts: opts.normalized(), surface: surface}
}

// Kind implements core.Backend.
func (b *Backend) Kind() core.BackendKind {
	return core.BackendPreview
}

// Surface returns the surface documents are published to.
func (b *Backend) Surface() *Surface {
	return b.surface
}

// Execute implements core.Backend.
func (b *Backend) Execute(ctx context.Context, req schema.RunRequest, emit core.Emitter) error {
	id := NewRenderID()
	doc, err := b.opts.Render(req.Source(), id)
	if err != nil {
		return core.NewExecError(core.ErrorBuild, "preview render", err)
	}
	if err := ctx.Err(); err != nil {
		return core.NewExecError(core.ErrorCanceled, "preview", err)
	}
	event := b.surface.Publish(id, doc)
	if log := pslog.Ctx(ctx); log != nil {
		log.Debug("preview published", "key", event.Key, "id", event.ID, "bytes", len(doc))
	}
	emit(schema.SeverityInfo, fmt.Sprintf("Preview updated (render %d)", event.Key))
	return nil
}
