package sim

import "testing"

// chain builds the line 0-1-...-(n-1).
func chain(t *testing.T, n int) *Network {
	t.Helper()
	net := NewNetwork(n)
	for i := 0; i < n-1; i++ {
		mustConnect(t, net, NodeID(i), NodeID(i+1))
	}
	return net
}

// grid builds a width x height 4-connected grid with row-major ids.
func grid(t *testing.T, width, height int) *Network {
	t.Helper()
	net := NewNetwork(width * height)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			id := NodeID(r*width + c)
			if c+1 < width {
				mustConnect(t, net, id, id+1)
			}
			if r+1 < height {
				mustConnect(t, net, id, id+NodeID(width))
			}
		}
	}
	return net
}

func mustConnect(t *testing.T, net *Network, a, b NodeID) {
	t.Helper()
	if _, err := net.Connect(a, b); err != nil {
		t.Fatalf("connect %d-%d: %v", a, b, err)
	}
}

// recorder keeps every emitted event.
type recorder struct {
	events []Event
}

func (r *recorder) Emit(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) delivered() []PacketDeliveredEvent {
	var out []PacketDeliveredEvent
	for _, ev := range r.events {
		if d, ok := ev.(PacketDeliveredEvent); ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) hops() []HopEvent {
	var out []HopEvent
	for _, ev := range r.events {
		if h, ok := ev.(HopEvent); ok {
			out = append(out, h)
		}
	}
	return out
}

func (r *recorder) ticks() []TickEvent {
	var out []TickEvent
	for _, ev := range r.events {
		if te, ok := ev.(TickEvent); ok {
			out = append(out, te)
		}
	}
	return out
}

// scriptedInjector injects fixed pairs at fixed ticks.
type scriptedInjector struct {
	at map[int64][]NodePair
}

func (s *scriptedInjector) Inject(ctx *RuntimeContext, net *Network) error {
	for _, pair := range s.at[ctx.Tick] {
		node, err := net.Node(pair.Origin)
		if err != nil {
			return err
		}
		p := NewPacket(ctx.NextPacketID(), pair.Origin, pair.Destination)
		ctx.Depart(p)
		node.Enqueue(p)
	}
	return nil
}

// uniformInjector injects up to perTick random distinct pairs, capped at maxActive in flight.
type uniformInjector struct {
	perTick   int
	maxActive int
}

func (u *uniformInjector) Inject(ctx *RuntimeContext, net *Network) error {
	n := min(u.perTick, max(0, u.maxActive-net.PacketsInFlight()))
	rng := ctx.Rand()
	for i := 0; i < n; i++ {
		o := NodeID(rng.NextInt(net.Len()))
		d := NodeID(rng.NextInt(net.Len()))
		if o == d {
			continue
		}
		p := NewPacket(ctx.NextPacketID(), o, d)
		ctx.Depart(p)
		net.mustNode(o).Enqueue(p)
	}
	return nil
}

// newTestContext returns a context Reset for algorithm.
func newTestContext(seed int64, algorithm Algorithm, sink EventSink) *RuntimeContext {
	ctx := NewRuntimeContext(NewSimulationKey(seed), sink)
	ctx.Reset(algorithm)
	return ctx
}

// install puts a fresh application of algorithm on every node.
func install(net *Network, algorithm Algorithm) {
	factory := NewRoutingFactory(algorithm, net)
	for _, node := range net.Nodes() {
		node.Install(factory(node.ID))
	}
}
