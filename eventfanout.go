package codelab

import (
	"pkt.systems/codelab/core"
	"pkt.systems/codelab/internal/preview"
	"pkt.systems/codelab/schema"
)

type eventFanout struct {
	sinks    []core.EventSink
	previews []preview.Sink
}

func (f eventFanout) OnOutput(event schema.OutputEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnOutput(event)
	}
}

func (f eventFanout) OnStatus(event schema.StatusEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnStatus(event)
	}
}

func (f eventFanout) OnPreview(event schema.PreviewEvent) {
	for _, sink := range f.previews {
		if sink == nil {
			continue
		}
		sink.OnPreview(event)
	}
}
