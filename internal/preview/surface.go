package preview

import (
	"sync"

	"github.com/google/uuid"

	"pkt.systems/codelab/schema"
)

// Sink is notified whenever a new document is published.
type Sink interface {
	OnPreview(event schema.PreviewEvent)
}

// Surface holds the most recent rendered document. Every publish bumps the
// remount key so viewers load a fresh frame instead of patching the old one.
type Surface struct {
	mu    sync.Mutex
	key   int
	id    string
	doc   string
	sinks []Sink
}

// NewSurface constructs an empty surface.
func NewSurface(sinks ...Sink) *Surface {
	return &Surface{sinks: sinks}
}

// NewRenderID returns a fresh id for a document.
func NewRenderID() string {
	return uuid.NewString()
}

// Publish stores doc under a new remount key.
func (s *Surface) Publish(id, doc string) schema.PreviewEvent {
	s.mu.Lock()
	s.key++
	if id == "" {
		id = NewRenderID()
	}
	s.id = id
	s.doc = doc
	event := schema.PreviewEvent{Key: s.key, ID: id}
	sinks := s.sinks
	s.mu.Unlock()
	for _, sink := range sinks {
		if sink != nil {
			sink.OnPreview(event)
		}
	}
	return event
}

// Latest returns the current remount key and document.
func (s *Surface) Latest() (schema.PreviewEvent, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == 0 {
		return schema.PreviewEvent{}, "", false
	}
	return schema.PreviewEvent{Key: s.key, ID: s.id}, s.doc, true
}

// Document returns the document for key. Only the latest key resolves.
func (s *Surface) Document(key int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == 0 || key != s.key {
		return "", false
	}
	return s.doc, true
}
