package sim

import (
	"cmp"
	"fmt"
	"slices"
)

// PendingSend is a send scheduled during a tick and applied at flush time.
type PendingSend struct {
	From   NodeID
	To     NodeID
	Packet *Packet
}

// RuntimeContext is the mutable state threaded through one algorithm run.
//
// It is constructed once per simulation session and re-initialized by Reset
// before each algorithm. The network topology is not part of the context.
type RuntimeContext struct {
	// Tick is the current tick, advancing by one per loop iteration.
	Tick      int64
	Algorithm Algorithm

	seed SimulationKey
	rng  *RNG
	sink EventSink

	nextPacketID PacketID
	injected     int
	delivered    []*Packet
	undelivered  map[PacketID]*Packet
	pending      []PendingSend
}

// NewRuntimeContext creates a context. The RNG is not usable until Reset.
func NewRuntimeContext(seed SimulationKey, sink EventSink) *RuntimeContext {
	if sink == nil {
		sink = NopSink{}
	}
	return &RuntimeContext{
		seed:        seed,
		sink:        sink,
		undelivered: make(map[PacketID]*Packet),
	}
}

// Reset re-initializes every per-run field for algorithm.
func (c *RuntimeContext) Reset(algorithm Algorithm) {
	c.Tick = 0
	c.Algorithm = algorithm
	if c.rng == nil {
		c.rng = NewRNG(c.seed)
	} else {
		c.rng.Reseed(c.seed)
	}
	c.nextPacketID = 0
	c.injected = 0
	c.delivered = nil
	c.undelivered = make(map[PacketID]*Packet)
	c.pending = nil
}

// Rand returns the run's RNG. Panics before the first Reset.
func (c *RuntimeContext) Rand() *RNG {
	if c.rng == nil {
		panic("RuntimeContext.Rand: context used before Reset")
	}
	return c.rng
}

// Seed returns the session seed.
func (c *RuntimeContext) Seed() SimulationKey {
	return c.seed
}

// Emit forwards ev to the sink.
func (c *RuntimeContext) Emit(ev Event) {
	c.sink.Emit(ev)
}

// NextPacketID allocates a fresh packet id.
func (c *RuntimeContext) NextPacketID() PacketID {
	id := c.nextPacketID
	c.nextPacketID++
	return id
}

// Depart stamps p's departure tick and emits PacketDepartedEvent the first
// time it is called for p; later calls are no-ops.
func (c *RuntimeContext) Depart(p *Packet) {
	if !p.MarkDeparted(c.Tick) {
		return
	}
	c.injected++
	c.undelivered[p.ID] = p
	c.Emit(PacketDepartedEvent{
		PacketID:     p.ID,
		From:         p.Origin,
		DepartedTick: c.Tick,
		Algorithm:    c.Algorithm,
	})
}

// Deliver records p as arrived and emits PacketDeliveredEvent once.
func (c *RuntimeContext) Deliver(p *Packet) {
	if !p.MarkArrived(c.Tick) {
		return
	}
	delete(c.undelivered, p.ID)
	c.delivered = append(c.delivered, p)
	c.Emit(PacketDeliveredEvent{
		Packet:       *p,
		PathHopCount: p.Hops,
		ReceivedTime: c.Tick,
		Algorithm:    c.Algorithm,
	})
}

// Schedule buffers a send. It is applied by Flush at the end of the tick.
func (c *RuntimeContext) Schedule(from, to NodeID, p *Packet) {
	c.pending = append(c.pending, PendingSend{From: from, To: to, Packet: p})
}

// Pending returns the sends buffered so far this tick. Must not be modified.
func (c *RuntimeContext) Pending() []PendingSend {
	return c.pending
}

// Flush applies every buffered send in scheduling order through
// Network.SendPacket and empties the buffer. It returns the number applied.
func (c *RuntimeContext) Flush(net *Network) (int, error) {
	pending := c.pending
	c.pending = nil
	for i, s := range pending {
		if err := net.SendPacket(c, s.From, s.To, s.Packet); err != nil {
			return i, fmt.Errorf("flush tick %d: %w", c.Tick, err)
		}
	}
	return len(pending), nil
}

// Advance moves to the next tick.
func (c *RuntimeContext) Advance() {
	c.Tick++
}

// InjectedCount returns the number of packets departed this run.
func (c *RuntimeContext) InjectedCount() int {
	return c.injected
}

// DeliveredCount returns the number of packets delivered this run.
func (c *RuntimeContext) DeliveredCount() int {
	return len(c.delivered)
}

// Delivered returns delivered packets in delivery order. Must not be modified.
func (c *RuntimeContext) Delivered() []*Packet {
	return c.delivered
}

// Undelivered returns departed, not yet delivered packets ordered by id.
func (c *RuntimeContext) Undelivered() []*Packet {
	out := make([]*Packet, 0, len(c.undelivered))
	for _, p := range c.undelivered {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Packet) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
