package trace

import (
	"github.com/routing-sim/routing-sim/sim"
)

// AlgorithmSummary aggregates the events of one algorithm run.
type AlgorithmSummary struct {
	Algorithm        sim.Algorithm
	Ticks            int
	Departed         int
	Delivered        int
	Hops             int
	MeanDeliveryTime float64
	MaxDeliveryTime  int64
	MeanPathHops     float64
	PeakInFlight     int
}

// Summarize folds events into one summary per algorithm, in order of first
// appearance. Safe for nil or empty input.
func Summarize(events []sim.Event) []*AlgorithmSummary {
	var order []*AlgorithmSummary
	byAlg := make(map[sim.Algorithm]*AlgorithmSummary)
	get := func(a sim.Algorithm) *AlgorithmSummary {
		s, ok := byAlg[a]
		if !ok {
			s = &AlgorithmSummary{Algorithm: a}
			byAlg[a] = s
			order = append(order, s)
		}
		return s
	}

	totalTime := make(map[sim.Algorithm]int64)
	totalPathHops := make(map[sim.Algorithm]int)
	for _, ev := range events {
		switch e := ev.(type) {
		case sim.HopEvent:
			get(e.Algorithm).Hops++
		case sim.PacketDepartedEvent:
			get(e.Algorithm).Departed++
		case sim.PacketDeliveredEvent:
			s := get(e.Algorithm)
			s.Delivered++
			dt := e.Packet.DeliveryTime()
			totalTime[e.Algorithm] += dt
			totalPathHops[e.Algorithm] += e.PathHopCount
			s.MaxDeliveryTime = max(s.MaxDeliveryTime, dt)
		case sim.TickEvent:
			s := get(e.Algorithm)
			s.Ticks++
			s.PeakInFlight = max(s.PeakInFlight, e.PacketsInFlight)
		}
	}

	for _, s := range order {
		if s.Delivered > 0 {
			s.MeanDeliveryTime = float64(totalTime[s.Algorithm]) / float64(s.Delivered)
			s.MeanPathHops = float64(totalPathHops[s.Algorithm]) / float64(s.Delivered)
		}
	}
	return order
}
