// Package trace records kernel events for offline analysis and summarizes them.
package trace

import (
	"github.com/routing-sim/routing-sim/sim"
)

// Recorder is an EventSink that keeps every event in emission order.
type Recorder struct {
	Events []sim.Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Events: make([]sim.Event, 0)}
}

// Emit implements sim.EventSink.
func (r *Recorder) Emit(ev sim.Event) {
	r.Events = append(r.Events, ev)
}

// OfKind returns the recorded events of kind, in order.
func (r *Recorder) OfKind(kind sim.EventKind) []sim.Event {
	var out []sim.Event
	for _, ev := range r.Events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Delivered returns the recorded delivery events.
func (r *Recorder) Delivered() []sim.PacketDeliveredEvent {
	var out []sim.PacketDeliveredEvent
	for _, ev := range r.Events {
		if d, ok := ev.(sim.PacketDeliveredEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}
