package sim

// Packet is a unit of traffic routed hop by hop from Origin to Destination.
//
// Lifecycle: created by the traffic injector, marked departed once on first
// injection, moved between node queues by flushed sends, and marked arrived
// when the destination node's routing application pops it.
type Packet struct {
	ID          PacketID `json:"id"`
	Origin      NodeID   `json:"origin"`
	Destination NodeID   `json:"destination"`

	// QueueTime counts ticks spent waiting in a queue since the last hop.
	// Reset to 0 on every applied send; incremented once per tick while queued.
	QueueTime int64 `json:"queue_time"`
	// Hops counts applied sends.
	Hops int `json:"hops"`

	DepartedAt int64 `json:"departed_at"`
	Departed   bool  `json:"departed"`
	ArrivedAt  int64 `json:"arrived_at"`
	Arrived    bool  `json:"arrived"`
}

// NewPacket creates an undeparted packet.
func NewPacket(id PacketID, origin, destination NodeID) *Packet {
	return &Packet{
		ID:          id,
		Origin:      origin,
		Destination: destination,
	}
}

// MarkDeparted stamps the departure tick. Only the first call has an effect;
// it reports whether this call set the stamp.
func (p *Packet) MarkDeparted(tick int64) bool {
	if p.Departed {
		return false
	}
	p.Departed = true
	p.DepartedAt = tick
	return true
}

// MarkArrived stamps the arrival tick. Only the first call has an effect.
func (p *Packet) MarkArrived(tick int64) bool {
	if p.Arrived {
		return false
	}
	p.Arrived = true
	p.ArrivedAt = tick
	return true
}

// DeliveryTime returns ArrivedAt - DepartedAt, or 0 if the packet has not arrived.
func (p *Packet) DeliveryTime() int64 {
	if !p.Arrived || !p.Departed {
		return 0
	}
	return p.ArrivedAt - p.DepartedAt
}
