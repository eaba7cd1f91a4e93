// Package testutil provides shared test infrastructure for the simulator's
// sub-packages. It consolidates small topologies, context setup, event
// collection and assertion helpers used across sim/traffic, sim/config and
// sim/observe test packages.
package testutil

import (
	"math"
	"testing"

	"github.com/routing-sim/routing-sim/sim"
)

// Chain builds the line 0-1-...-(n-1).
func Chain(t *testing.T, n int) *sim.Network {
	t.Helper()
	net := sim.NewNetwork(n)
	for i := 0; i < n-1; i++ {
		if _, err := net.Connect(sim.NodeID(i), sim.NodeID(i+1)); err != nil {
			t.Fatalf("connect %d-%d: %v", i, i+1, err)
		}
	}
	return net
}

// NewContext returns a context already Reset for algorithm.
func NewContext(seed int64, algorithm sim.Algorithm, sink sim.EventSink) *sim.RuntimeContext {
	ctx := sim.NewRuntimeContext(sim.NewSimulationKey(seed), sink)
	ctx.Reset(algorithm)
	return ctx
}

// Collector is an EventSink that keeps every event.
type Collector struct {
	Events []sim.Event
}

// Emit implements sim.EventSink.
func (c *Collector) Emit(ev sim.Event) {
	c.Events = append(c.Events, ev)
}

// Count returns how many collected events are of kind.
func (c *Collector) Count(kind sim.EventKind) int {
	n := 0
	for _, ev := range c.Events {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
