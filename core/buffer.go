package core

import (
	"sync"

	"pkt.systems/codelab/schema"
)

// DefaultMaxEntries is the number of entries the output channel retains.
const DefaultMaxEntries = 1000

// OutputChannel is the ordered, capped log of output shown to the user.
// Entries beyond the cap push out the oldest ones.
type OutputChannel struct {
	mu         sync.Mutex
	entries    []schema.OutputEvent
	maxEntries int
	seq        uint64
	dropped    int
}

// OutputView is a snapshot of the channel's visible state.
type OutputView struct {
	Entries      []schema.OutputEvent
	TotalEntries int
	Dropped      int
}

// NewOutputChannel returns a channel retaining at most maxEntries entries.
func NewOutputChannel(maxEntries int) *OutputChannel {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &OutputChannel{maxEntries: maxEntries}
}

// Append records an entry and returns it with its sequence position assigned.
func (c *OutputChannel) Append(generation uint64, severity schema.Severity, text string) schema.OutputEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	event := schema.OutputEvent{
		Seq:        c.seq,
		Severity:   severity,
		Text:       text,
		Generation: generation,
	}
	c.entries = append(c.entries, event)
	maxEntries := c.maxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if len(c.entries) > maxEntries {
		trim := len(c.entries) - maxEntries
		c.entries = append(c.entries[:0:0], c.entries[trim:]...)
		c.dropped += trim
	}
	return event
}

// Clear removes every entry. Sequence positions keep increasing.
func (c *OutputChannel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.dropped = 0
}

// Len returns the number of retained entries.
func (c *OutputChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns the newest limit entries; limit <= 0 returns all.
func (c *OutputChannel) Snapshot(limit int) OutputView {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := len(c.entries)
	if limit <= 0 || limit > total {
		limit = total
	}
	entries := make([]schema.OutputEvent, limit)
	copy(entries, c.entries[total-limit:])
	return OutputView{
		Entries:      entries,
		TotalEntries: total,
		Dropped:      c.dropped,
	}
}

// Lines returns the text of every retained entry.
func (c *OutputChannel) Lines() []string {
	view := c.Snapshot(0)
	lines := make([]string, len(view.Entries))
	for i, entry := range view.Entries {
		lines[i] = entry.Text
	}
	return lines
}
