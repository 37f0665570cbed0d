package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/codelab/internal/eventbus"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq        uint64           `json:"seq"`
	Type       string           `json:"type"`
	Key        int              `json:"key,omitempty"`
	RenderID   string           `json:"render_id,omitempty"`
	Severity   schema.Severity  `json:"severity,omitempty"`
	Text       string           `json:"text,omitempty"`
	Status     schema.RunStatus `json:"status,omitempty"`
	Generation uint64           `json:"generation,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Hub numbers studio events and broadcasts them to stream clients, keeping
// a bounded history for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
	log         pslog.Logger
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int, logger pslog.Logger) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
		log:         logger,
	}
}

// Consume forwards bus events until ctx ends or the channel closes.
func (h *Hub) Consume(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.Publish(event)
		}
	}
}

// Publish converts a bus event into a stream event and broadcasts it.
func (h *Hub) Publish(event eventbus.Event) {
	now := time.Now()
	switch event.Type {
	case eventbus.EventPreview:
		h.publish(StreamEvent{Type: "preview", Key: event.Preview.Key, RenderID: event.Preview.ID, Timestamp: now})
	case eventbus.EventOutput:
		h.publish(StreamEvent{
			Type:       "output",
			Severity:   event.Output.Severity,
			Text:       event.Output.Text,
			Generation: event.Output.Generation,
			Timestamp:  now,
		})
	case eventbus.EventStatus:
		h.publish(StreamEvent{
			Type:       "status",
			Status:     event.Status.Status,
			Generation: event.Status.Generation,
			Timestamp:  now,
		})
	}
}

// Subscribe registers a subscriber.
func (h *Hub) Subscribe() (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	h.log.Info("hub subscribe", "subs", len(h.subs), "history", len(h.history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			h.log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	h.log.Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
