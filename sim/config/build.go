package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/routing-sim/routing-sim/sim"
	"github.com/routing-sim/routing-sim/sim/topology"
	"github.com/routing-sim/routing-sim/sim/traffic"
)

// ValidTopologies is the set of recognized topology kinds.
var ValidTopologies = map[string]bool{"line": true, "ring": true, "grid": true, "holey-grid-6x6": true, "links": true}

// ValidTerminations is the set of recognized termination kinds.
var ValidTerminations = map[string]bool{"fixed-ticks": true, "total-packets-delivered": true, "composite": true}

// ValidSchedules is the set of recognized schedule kinds.
var ValidSchedules = map[string]bool{
	"load-level": true, "prob-per-tick": true, "gap": true,
	"linear": true, "triangular": true, "segmentwise": true,
	traffic.WindowedLoad: true, traffic.PlateauThenLinear: true,
	traffic.PlateauRampPlateau: true, traffic.FixedLoadStep: true,
}

// ValidSelectors is the set of recognized pair selector kinds.
var ValidSelectors = map[string]bool{"random": true, "random-in-groups": true, "oscillating-between-groups": true}

// ValidDynamics is the set of recognized dynamics kinds. Empty means none.
var ValidDynamics = map[string]bool{"": true, "none": true, "scheduled-link-failures": true}

// Validate checks names and parameter ranges by building every component.
func (sc Scenario) Validate() error {
	_, err := sc.Build(nil)
	return err
}

// Build turns the scenario into an EngineConfig. sink may be nil.
func (sc Scenario) Build(sink sim.EventSink) (sim.EngineConfig, error) {
	if len(sc.Algorithms) == 0 {
		return sim.EngineConfig{}, errors.New("scenario: at least one algorithm is required")
	}
	algorithms := make([]sim.Algorithm, 0, len(sc.Algorithms))
	for _, a := range sc.Algorithms {
		if !sim.IsValidAlgorithm(a) {
			return sim.EngineConfig{}, fmt.Errorf("scenario: unknown algorithm %q (valid: %v)", a, sim.ValidAlgorithmNames())
		}
		algorithms = append(algorithms, sim.Algorithm(a))
	}

	net, err := sc.Topology.Build()
	if err != nil {
		return sim.EngineConfig{}, err
	}
	if net.Len() < 2 {
		return sim.EngineConfig{}, fmt.Errorf("scenario: topology needs at least 2 nodes, got %d", net.Len())
	}
	if !topology.Connected(net) {
		logrus.Warnf("topology %q is not connected: %d components", sc.Topology.Kind, len(topology.Components(net)))
	}

	groups, err := sc.resolveGroups(net)
	if err != nil {
		return sim.EngineConfig{}, err
	}
	term, err := sc.Termination.Build()
	if err != nil {
		return sim.EngineConfig{}, err
	}
	injector, err := sc.Traffic.Build(groups, sc.MaxActivePackets)
	if err != nil {
		return sim.EngineConfig{}, err
	}
	dyn, err := sc.Dynamics.Build(net)
	if err != nil {
		return sim.EngineConfig{}, err
	}

	return sim.EngineConfig{
		Network:     net,
		Algorithms:  algorithms,
		Seed:        sim.NewSimulationKey(sc.Seed),
		Termination: term,
		Injector:    injector,
		Dynamics:    dyn,
		Sink:        sink,
	}, nil
}

func (sc Scenario) resolveGroups(net *sim.Network) (map[string][]sim.NodeID, error) {
	groups := make(map[string][]sim.NodeID, len(sc.Groups))
	for name, members := range sc.Groups {
		ids := make([]sim.NodeID, 0, len(members))
		for _, m := range members {
			if _, err := net.Node(sim.NodeID(m)); err != nil {
				return nil, fmt.Errorf("scenario: group %q: %w", name, err)
			}
			ids = append(ids, sim.NodeID(m))
		}
		groups[name] = ids
	}
	return groups, nil
}

// Build creates the network.
func (t TopologySpec) Build() (*sim.Network, error) {
	if !ValidTopologies[t.Kind] {
		return nil, fmt.Errorf("unknown topology %q", t.Kind)
	}
	switch t.Kind {
	case "line":
		return topology.Line(t.Nodes)
	case "ring":
		return topology.Ring(t.Nodes)
	case "grid":
		return topology.Grid(t.Width, t.Height)
	case "holey-grid-6x6":
		return topology.HoleyGrid6x6(), nil
	case "links":
		return topology.FromLinks(t.Nodes, t.Links)
	default:
		return nil, fmt.Errorf("unhandled topology %q", t.Kind)
	}
}

// Build creates the termination policy. sim.NewComposite rejects composite children.
func (t TerminationSpec) Build() (sim.TerminationPolicy, error) {
	if !ValidTerminations[t.Kind] {
		return nil, fmt.Errorf("unknown termination policy %q", t.Kind)
	}
	switch t.Kind {
	case "fixed-ticks":
		v, err := sim.NewFixedTicks(t.Ticks)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "total-packets-delivered":
		v, err := sim.NewTotalPacketsDelivered(t.Count)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "composite":
		children := make([]sim.TerminationPolicy, 0, len(t.Children))
		for i, c := range t.Children {
			child, err := c.Build()
			if err != nil {
				return nil, fmt.Errorf("composite child %d: %w", i, err)
			}
			children = append(children, child)
		}
		v, err := sim.NewComposite(sim.CompositeMode(t.Mode), children...)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unhandled termination policy %q", t.Kind)
	}
}

// Build creates the injector.
func (t TrafficSpec) Build(groups map[string][]sim.NodeID, maxActivePackets int) (*traffic.Injector, error) {
	schedule, err := t.Schedule.Build()
	if err != nil {
		return nil, err
	}
	selector, err := t.PairSelector.Build(groups)
	if err != nil {
		return nil, err
	}
	constraints := make([]traffic.PairConstraint, 0, len(t.Constraints))
	for _, name := range t.Constraints {
		c, err := traffic.NewConstraint(name)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return traffic.NewInjector(schedule, selector, constraints, maxActivePackets)
}

// Build creates the schedule.
func (s ScheduleSpec) Build() (traffic.Schedule, error) {
	if !ValidSchedules[s.Kind] {
		return nil, fmt.Errorf("unknown traffic schedule %q", s.Kind)
	}
	switch s.Kind {
	case "load-level":
		v, err := traffic.NewLoadLevel(s.Level)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "prob-per-tick":
		v, err := traffic.NewProbPerTick(s.Probability)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "gap":
		v, err := traffic.NewGap(s.EveryNTicks, s.BatchSize)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "linear":
		v, err := traffic.NewLinear(s.Start, s.End, s.DurationTicks)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "triangular":
		v, err := traffic.NewTriangular(s.Min, s.Max, s.PeriodTicks)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "segmentwise":
		v, err := traffic.NewSegmentwise(s.Segments)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return traffic.NewUnimplemented(s.Kind), nil
	}
}

// Build creates the pair selector, resolving group names.
func (s SelectorSpec) Build(groups map[string][]sim.NodeID) (traffic.PairSelector, error) {
	if !ValidSelectors[s.Kind] {
		return nil, fmt.Errorf("unknown pair selector %q", s.Kind)
	}
	lookup := func(name string) ([]sim.NodeID, error) {
		g, ok := groups[name]
		if !ok {
			return nil, fmt.Errorf("pair selector %q: unknown group %q", s.Kind, name)
		}
		return g, nil
	}
	switch s.Kind {
	case "random":
		return traffic.Random{}, nil
	case "random-in-groups":
		names := s.Groups
		if len(names) == 0 {
			for name := range groups {
				names = append(names, name)
			}
			sort.Strings(names)
		}
		chosen := make(map[string][]sim.NodeID, len(names))
		for _, name := range names {
			g, err := lookup(name)
			if err != nil {
				return nil, err
			}
			chosen[name] = g
		}
		v, err := traffic.NewRandomInGroups(chosen)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "oscillating-between-groups":
		a, err := lookup(s.From)
		if err != nil {
			return nil, err
		}
		b, err := lookup(s.To)
		if err != nil {
			return nil, err
		}
		v, err := traffic.NewOscillatingBetweenGroups(a, b, s.PeriodTicks)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unhandled pair selector %q", s.Kind)
	}
}

// Build creates the dynamics, checking link endpoints against net.
func (d DynamicsSpec) Build(net *sim.Network) (sim.NetworkDynamics, error) {
	if !ValidDynamics[d.Kind] {
		return nil, fmt.Errorf("unknown network dynamics %q", d.Kind)
	}
	switch d.Kind {
	case "", "none":
		return sim.NoDynamics{}, nil
	case "scheduled-link-failures":
		for _, l := range d.Links {
			if _, err := net.Node(l.A); err != nil {
				return nil, fmt.Errorf("scheduled-link-failures: %w", err)
			}
			if _, err := net.Node(l.B); err != nil {
				return nil, fmt.Errorf("scheduled-link-failures: %w", err)
			}
			if !net.AreNeighbors(l.A, l.B) {
				logrus.Warnf("scheduled-link-failures: link %d-%d is not in the topology and will be ignored", l.A, l.B)
			}
		}
		v, err := sim.NewScheduledLinkFailures(d.Links, d.DisconnectAtTick, d.ReconnectAtTick)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unhandled network dynamics %q", d.Kind)
	}
}
