package sim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTicks(t *testing.T, n int64) TerminationPolicy {
	t.Helper()
	p, err := NewFixedTicks(n)
	require.NoError(t, err)
	return p
}

func runEngine(t *testing.T, cfg EngineConfig) ([]RunSummary, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg.Sink = rec
	eng, err := NewEngine(cfg)
	require.NoError(t, err)
	summaries, err := eng.Run()
	require.NoError(t, err)
	return summaries, rec
}

func TestNewEngine_Validation(t *testing.T) {
	valid := func() EngineConfig {
		return EngineConfig{
			Network:     NewNetwork(2),
			Algorithms:  []Algorithm{AlgorithmQRouting},
			Termination: &FixedTicks{Ticks: 1},
			Injector:    &scriptedInjector{},
		}
	}
	tests := []struct {
		name   string
		mutate func(*EngineConfig)
	}{
		{"nil network", func(c *EngineConfig) { c.Network = nil }},
		{"empty network", func(c *EngineConfig) { c.Network = NewNetwork(0) }},
		{"no algorithms", func(c *EngineConfig) { c.Algorithms = nil }},
		{"unknown algorithm", func(c *EngineConfig) { c.Algorithms = []Algorithm{"flooding"} }},
		{"nil termination", func(c *EngineConfig) { c.Termination = nil }},
		{"nil injector", func(c *EngineConfig) { c.Injector = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewEngine(valid())
	assert.NoError(t, err, "dynamics and sink default when nil")
}

func TestEngine_QRoutingDeliversOnChain(t *testing.T) {
	// GIVEN chain 0-1-2 and one packet 0 -> 2 injected at tick 0
	cfg := EngineConfig{
		Network:     chain(t, 3),
		Algorithms:  []Algorithm{AlgorithmQRouting},
		Seed:        NewSimulationKey(42),
		Termination: fixedTicks(t, 20),
		Injector:    &scriptedInjector{at: map[int64][]NodePair{0: {{Origin: 0, Destination: 2}}}},
	}

	// WHEN q-routing runs for 20 ticks
	summaries, rec := runEngine(t, cfg)

	// THEN the packet is delivered exactly once
	require.Len(t, rec.delivered(), 1)
	d := rec.delivered()[0]
	assert.Equal(t, PacketID(0), d.Packet.ID)
	assert.Equal(t, NodeID(2), d.Packet.Destination)
	assert.LessOrEqual(t, d.ReceivedTime, int64(20))
	assert.Equal(t, RunSummary{
		Algorithm:        AlgorithmQRouting,
		Ticks:            20,
		Injected:         1,
		Delivered:        1,
		MeanDeliveryTime: float64(d.Packet.DeliveryTime()),
		MeanHops:         float64(d.PathHopCount),
	}, summaries[0])
}

func TestEngine_SendsLandNextTick(t *testing.T) {
	// GIVEN chain 0-1-2 and shortest-path routing
	cfg := EngineConfig{
		Network:     chain(t, 3),
		Algorithms:  []Algorithm{AlgorithmShortestPath},
		Termination: fixedTicks(t, 5),
		Injector:    &scriptedInjector{at: map[int64][]NodePair{0: {{Origin: 0, Destination: 2}}}},
	}

	_, rec := runEngine(t, cfg)

	// THEN each hop takes one tick: sent at 0 and 1, delivered at 2
	hops := rec.hops()
	require.Len(t, hops, 2)
	assert.Equal(t, int64(0), hops[0].SentTick)
	assert.Equal(t, int64(1), hops[0].ExpectedReceiveTick)
	assert.Equal(t, int64(1), hops[1].SentTick)
	require.Len(t, rec.delivered(), 1)
	assert.Equal(t, int64(2), rec.delivered()[0].ReceivedTime)
	assert.Equal(t, 2, rec.delivered()[0].PathHopCount)
}

func TestEngine_TerminationCheckedEveryTick(t *testing.T) {
	cfg := EngineConfig{
		Network:     chain(t, 2),
		Algorithms:  []Algorithm{AlgorithmQRouting},
		Termination: fixedTicks(t, 1),
		Injector:    &scriptedInjector{},
	}
	summaries, rec := runEngine(t, cfg)
	assert.Len(t, rec.ticks(), 1)
	assert.Equal(t, int64(1), summaries[0].Ticks)
}

func TestEngine_StopsAfterDeliveredCount(t *testing.T) {
	policy, err := NewTotalPacketsDelivered(5)
	require.NoError(t, err)
	cfg := EngineConfig{
		Network:     grid(t, 3, 3),
		Algorithms:  []Algorithm{AlgorithmShortestPath},
		Seed:        NewSimulationKey(7),
		Termination: policy,
		Injector:    &uniformInjector{perTick: 2, maxActive: 50},
	}

	summaries, rec := runEngine(t, cfg)

	ticks := rec.ticks()
	require.GreaterOrEqual(t, len(ticks), 1)
	assert.GreaterOrEqual(t, summaries[0].Delivered, 5)
	assert.GreaterOrEqual(t, ticks[len(ticks)-1].DeliveredCount, 5)
	if len(ticks) > 1 {
		assert.Less(t, ticks[len(ticks)-2].DeliveredCount, 5, "run must stop at the first tick reaching the count")
	}
}

func TestEngine_DeterministicReplay(t *testing.T) {
	cfg := func() EngineConfig {
		return EngineConfig{
			Network:     grid(t, 4, 4),
			Algorithms:  allAlgorithms,
			Seed:        NewSimulationKey(42),
			Termination: fixedTicks(t, 100),
			Injector:    &uniformInjector{perTick: 2, maxActive: 20},
		}
	}

	summariesA, recA := runEngine(t, cfg())
	summariesB, recB := runEngine(t, cfg())

	if diff := cmp.Diff(recA.events, recB.events); diff != "" {
		t.Errorf("event traces differ for identical seeds (-first +second):\n%s", diff)
	}
	assert.Equal(t, summariesA, summariesB)
	assert.NotEmpty(t, recA.delivered())
}

func TestEngine_ConservationAndBackpressure(t *testing.T) {
	const maxActive = 12
	for _, alg := range allAlgorithms {
		t.Run(string(alg), func(t *testing.T) {
			cfg := EngineConfig{
				Network:     grid(t, 4, 4),
				Algorithms:  []Algorithm{alg},
				Seed:        NewSimulationKey(3),
				Termination: fixedTicks(t, 80),
				Injector:    &uniformInjector{perTick: 4, maxActive: maxActive},
			}
			summaries, rec := runEngine(t, cfg)

			departed, delivered := 0, 0
			for _, ev := range rec.events {
				switch e := ev.(type) {
				case PacketDepartedEvent:
					departed++
				case PacketDeliveredEvent:
					delivered++
				case TickEvent:
					// THEN every departed packet is delivered or queued somewhere
					assert.Equal(t, departed-delivered, e.PacketsInFlight, "tick %d", e.Tick)
					assert.Equal(t, delivered, e.DeliveredCount, "tick %d", e.Tick)
					// THEN injection never pushes in-flight past the cap
					assert.LessOrEqual(t, e.PacketsInFlight, maxActive, "tick %d", e.Tick)
				}
			}
			s := summaries[0]
			assert.Equal(t, s.Injected, s.Delivered+s.InFlight)
		})
	}
}

func TestEngine_ShortestPathHopsApproachDestination(t *testing.T) {
	// GIVEN a static grid
	net := grid(t, 4, 4)
	cfg := EngineConfig{
		Network:     net,
		Algorithms:  []Algorithm{AlgorithmShortestPath},
		Seed:        NewSimulationKey(11),
		Termination: fixedTicks(t, 60),
		Injector:    &uniformInjector{perTick: 2, maxActive: 30},
	}
	_, rec := runEngine(t, cfg)

	dest := make(map[PacketID]NodeID)
	for _, d := range rec.delivered() {
		dest[d.Packet.ID] = d.Packet.Destination
		// THEN delivered packets took a shortest path
		hops, ok, err := net.Distance(d.Packet.Origin, d.Packet.Destination)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, hops, d.PathHopCount, "packet %d", d.Packet.ID)
	}
	require.NotEmpty(t, dest)

	// THEN every hop strictly decreases the distance to the destination
	for _, h := range rec.hops() {
		d, ok := dest[h.PacketID]
		if !ok {
			continue
		}
		from, _, err := net.Distance(h.From, d)
		require.NoError(t, err)
		to, _, err := net.Distance(h.To, d)
		require.NoError(t, err)
		assert.Less(t, to, from, "packet %d hop %d->%d", h.PacketID, h.From, h.To)
	}
}

func TestEngine_AlgorithmsRunInOrderFromFreshState(t *testing.T) {
	cfg := EngineConfig{
		Network:     grid(t, 3, 3),
		Algorithms:  allAlgorithms,
		Seed:        NewSimulationKey(5),
		Termination: fixedTicks(t, 30),
		Injector:    &uniformInjector{perTick: 1, maxActive: 10},
	}
	summaries, rec := runEngine(t, cfg)

	require.Len(t, summaries, 3)
	firstDeparture := make(map[Algorithm]PacketDepartedEvent)
	for i, alg := range allAlgorithms {
		assert.Equal(t, alg, summaries[i].Algorithm)
		assert.Equal(t, int64(30), summaries[i].Ticks)
	}
	for _, ev := range rec.events {
		if d, ok := ev.(PacketDepartedEvent); ok {
			if _, seen := firstDeparture[d.Algorithm]; !seen {
				firstDeparture[d.Algorithm] = d
			}
		}
	}
	// THEN packet ids and ticks restart for every algorithm
	for _, alg := range allAlgorithms {
		d, ok := firstDeparture[alg]
		require.True(t, ok, "%s injected nothing", alg)
		assert.Equal(t, PacketID(0), d.PacketID)
		assert.Equal(t, int64(0), d.DepartedTick)
	}
}

func TestEngine_IsolatedPacketWaitsForReconnect(t *testing.T) {
	// GIVEN link 0-1 down from tick 0 to tick 5 and a packet 0 -> 1 at tick 0
	net := chain(t, 2)
	failures, err := NewScheduledLinkFailures([]Link{{A: 0, B: 1}}, 0, 5)
	require.NoError(t, err)
	cfg := EngineConfig{
		Network:     net,
		Algorithms:  []Algorithm{AlgorithmQRouting},
		Termination: fixedTicks(t, 10),
		Injector:    &scriptedInjector{at: map[int64][]NodePair{0: {{Origin: 0, Destination: 1}}}},
		Dynamics:    failures,
	}

	_, rec := runEngine(t, cfg)

	// THEN it is sent on reconnection and delivered the tick after
	require.Len(t, rec.hops(), 1)
	assert.Equal(t, int64(5), rec.hops()[0].SentTick)
	require.Len(t, rec.delivered(), 1)
	assert.Equal(t, int64(6), rec.delivered()[0].ReceivedTime)

	// THEN the q-value saw the five ticks of waiting
	assert.InDelta(t, 3.0, qTableOf(t, net, 0).Get(0, 1, 1), 1e-12, "0.5 * (5 + 1 + 0)")
	assert.Equal(t, []Link{{A: 0, B: 1}}, net.Links())
}

func TestEngine_LinksRestoredBetweenAlgorithms(t *testing.T) {
	// GIVEN failures that never reconnect on their own
	net := grid(t, 3, 3)
	before := net.Links()
	failures, err := NewScheduledLinkFailures([]Link{{A: 0, B: 1}, {A: 4, B: 5}}, 3, 0)
	require.NoError(t, err)
	cfg := EngineConfig{
		Network:     net,
		Algorithms:  allAlgorithms,
		Termination: fixedTicks(t, 10),
		Injector:    &uniformInjector{perTick: 1, maxActive: 5},
		Dynamics:    failures,
	}

	runEngine(t, cfg)

	// THEN the topology is back to its original shape with no duplicates
	assert.Equal(t, before, net.Links())
	assert.Equal(t, []NodeID{1, 3}, net.mustNode(0).Neighbors())
}

func TestEngine_LinksRestoredWhenRunFails(t *testing.T) {
	// GIVEN failures applied at tick 0 and an injector that fails at tick 2
	net := chain(t, 3)
	before := net.Links()
	failures, err := NewScheduledLinkFailures([]Link{{A: 0, B: 1}}, 0, 0)
	require.NoError(t, err)
	eng, err := NewEngine(EngineConfig{
		Network:     net,
		Algorithms:  []Algorithm{AlgorithmQRouting},
		Termination: fixedTicks(t, 10),
		Injector:    &scriptedInjector{at: map[int64][]NodePair{2: {{Origin: 9, Destination: 0}}}},
		Dynamics:    failures,
	})
	require.NoError(t, err)

	// WHEN the run aborts
	_, err = eng.Run()

	// THEN the error surfaces and the topology is back to its original shape
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.Equal(t, before, eng.Network().Links())
	assert.False(t, failures.Disconnected())
}
