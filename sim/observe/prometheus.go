// Package observe mirrors kernel events into Prometheus metrics.
package observe

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/routing-sim/routing-sim/sim"
)

// PrometheusSink is an EventSink that keeps counters, gauges and a delivery
// time histogram per algorithm.
type PrometheusSink struct {
	hops         *prometheus.CounterVec
	departed     *prometheus.CounterVec
	delivered    *prometheus.CounterVec
	deliveryTime *prometheus.HistogramVec
	pathHops     *prometheus.HistogramVec
	inFlight     *prometheus.GaugeVec
	loadLevel    *prometheus.GaugeVec
	tick         *prometheus.GaugeVec
}

// NewPrometheusSink creates the metrics and registers them with reg.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	labels := []string{"algorithm"}
	s := &PrometheusSink{
		hops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_sim_hops_total",
			Help: "Applied packet sends between neighboring nodes",
		}, labels),
		departed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_sim_packets_departed_total",
			Help: "Packets injected into the network",
		}, labels),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_sim_packets_delivered_total",
			Help: "Packets that reached their destination",
		}, labels),
		deliveryTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routing_sim_delivery_ticks",
			Help:    "Ticks between departure and arrival",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, labels),
		pathHops: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routing_sim_path_hops",
			Help:    "Hops taken by delivered packets",
			Buckets: prometheus.LinearBuckets(1, 2, 16),
		}, labels),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routing_sim_packets_in_flight",
			Help: "Packets queued anywhere in the network after the last tick",
		}, labels),
		loadLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routing_sim_load_level",
			Help: "Most recent load level announced by the traffic schedule",
		}, labels),
		tick: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "routing_sim_tick",
			Help: "Last completed tick",
		}, labels),
	}
	for _, c := range []prometheus.Collector{s.hops, s.departed, s.delivered, s.deliveryTime, s.pathHops, s.inFlight, s.loadLevel, s.tick} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Emit implements sim.EventSink.
func (s *PrometheusSink) Emit(ev sim.Event) {
	switch e := ev.(type) {
	case sim.HopEvent:
		s.hops.WithLabelValues(string(e.Algorithm)).Inc()
	case sim.PacketDepartedEvent:
		s.departed.WithLabelValues(string(e.Algorithm)).Inc()
	case sim.PacketDeliveredEvent:
		alg := string(e.Algorithm)
		s.delivered.WithLabelValues(alg).Inc()
		s.deliveryTime.WithLabelValues(alg).Observe(float64(e.Packet.DeliveryTime()))
		s.pathHops.WithLabelValues(alg).Observe(float64(e.PathHopCount))
	case sim.TickEvent:
		alg := string(e.Algorithm)
		s.inFlight.WithLabelValues(alg).Set(float64(e.PacketsInFlight))
		s.tick.WithLabelValues(alg).Set(float64(e.Tick))
	case sim.LoadLevelUpdatedEvent:
		s.loadLevel.WithLabelValues(string(e.Algorithm)).Set(e.LoadLevel)
	}
}

// Hops returns the hop counter for algorithm, for inspection.
func (s *PrometheusSink) Hops(algorithm sim.Algorithm) prometheus.Counter {
	return s.hops.WithLabelValues(string(algorithm))
}

// Delivered returns the delivered counter for algorithm, for inspection.
func (s *PrometheusSink) Delivered(algorithm sim.Algorithm) prometheus.Counter {
	return s.delivered.WithLabelValues(string(algorithm))
}

// InFlight returns the in-flight gauge for algorithm, for inspection.
func (s *PrometheusSink) InFlight(algorithm sim.Algorithm) prometheus.Gauge {
	return s.inFlight.WithLabelValues(string(algorithm))
}
