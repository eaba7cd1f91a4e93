package sim

// EventKind names an event type in traces and sinks.
type EventKind string

const (
	EventHop              EventKind = "hop"
	EventPacketDeparted   EventKind = "packet_departed"
	EventPacketDelivered  EventKind = "packet_delivered"
	EventTick             EventKind = "tick"
	EventLoadLevelUpdated EventKind = "load_level_updated"
)

// Event is anything the kernel emits through its EventSink.
// Events are plain values: sinks may retain them.
type Event interface {
	Kind() EventKind
}

// HopEvent is emitted for every applied send.
type HopEvent struct {
	PacketID            PacketID  `json:"packet_id"`
	From                NodeID    `json:"from"`
	To                  NodeID    `json:"to"`
	SentTick            int64     `json:"sent_tick"`
	ExpectedReceiveTick int64     `json:"expected_receive_tick"`
	Algorithm           Algorithm `json:"algorithm"`
}

func (HopEvent) Kind() EventKind { return EventHop }

// PacketDepartedEvent is emitted once per packet, at first injection.
type PacketDepartedEvent struct {
	PacketID     PacketID  `json:"packet_id"`
	From         NodeID    `json:"from"`
	DepartedTick int64     `json:"departed_tick"`
	Algorithm    Algorithm `json:"algorithm"`
}

func (PacketDepartedEvent) Kind() EventKind { return EventPacketDeparted }

// PacketDeliveredEvent is emitted once per packet, when the destination pops it.
// Packet is a snapshot taken at delivery.
type PacketDeliveredEvent struct {
	Packet       Packet    `json:"packet"`
	PathHopCount int       `json:"path_hop_count"`
	ReceivedTime int64     `json:"received_time"`
	Algorithm    Algorithm `json:"algorithm"`
}

func (PacketDeliveredEvent) Kind() EventKind { return EventPacketDelivered }

// TickEvent is emitted once per tick, after the pending sends are flushed.
type TickEvent struct {
	Tick            int64     `json:"tick"`
	Algorithm       Algorithm `json:"algorithm"`
	PacketsInFlight int       `json:"packets_in_flight"`
	DeliveredCount  int       `json:"delivered_count"`
	SentThisTick    int       `json:"sent_this_tick"`
}

func (TickEvent) Kind() EventKind { return EventTick }

// LoadTrend describes the direction a load schedule is moving in.
type LoadTrend string

const (
	TrendRising  LoadTrend = "RISING"
	TrendFalling LoadTrend = "FALLING"
	TrendPlateau LoadTrend = "PLATEAU"
	TrendStable  LoadTrend = "STABLE"
)

// LoadLevelUpdatedEvent is emitted by load-level schedules.
type LoadLevelUpdatedEvent struct {
	Tick      int64     `json:"tick"`
	LoadLevel float64   `json:"load_level"`
	Trend     LoadTrend `json:"trend"`
	Algorithm Algorithm `json:"algorithm"`
}

func (LoadLevelUpdatedEvent) Kind() EventKind { return EventLoadLevelUpdated }

// === Sinks ===

// EventSink receives kernel events synchronously. Sinks must not mutate
// simulation state; the kernel behaves identically with or without them.
type EventSink interface {
	Emit(ev Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// MultiSink fans each event out to every sink in order. Nil entries are skipped.
type MultiSink []EventSink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}
