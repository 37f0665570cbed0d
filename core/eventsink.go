package core

import "pkt.systems/codelab/schema"

// EventSink receives output and run status events from the dispatcher.
// Calls are serialized by the dispatcher.
type EventSink interface {
	OnOutput(event schema.OutputEvent)
	OnStatus(event schema.StatusEvent)
}

type nopSink struct{}

func (nopSink) OnOutput(schema.OutputEvent) {}
func (nopSink) OnStatus(schema.StatusEvent) {}
