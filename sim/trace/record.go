package trace

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/routing-sim/routing-sim/sim"
)

// Record is the JSON-lines envelope for one event.
type Record struct {
	Seq   int           `json:"seq"`
	Kind  sim.EventKind `json:"kind"`
	Event sim.Event     `json:"event"`
}

// WriteJSONL writes one Record per line. The output is a pure function of the
// event sequence, so identical runs produce byte-identical files.
func WriteJSONL(w io.Writer, events []sim.Event) error {
	enc := json.NewEncoder(w)
	for i, ev := range events {
		if err := enc.Encode(Record{Seq: i, Kind: ev.Kind(), Event: ev}); err != nil {
			return fmt.Errorf("writing trace record %d: %w", i, err)
		}
	}
	return nil
}

// StreamWriter is an EventSink that writes each event as a JSON line as it is
// emitted. The first write error is kept and later events are dropped.
type StreamWriter struct {
	enc *json.Encoder
	seq int
	err error
}

// NewStreamWriter creates a StreamWriter over w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{enc: json.NewEncoder(w)}
}

// Emit implements sim.EventSink.
func (s *StreamWriter) Emit(ev sim.Event) {
	if s.err != nil {
		return
	}
	if err := s.enc.Encode(Record{Seq: s.seq, Kind: ev.Kind(), Event: ev}); err != nil {
		s.err = fmt.Errorf("writing trace record %d: %w", s.seq, err)
		return
	}
	s.seq++
}

// Err returns the first write error, if any.
func (s *StreamWriter) Err() error {
	return s.err
}
