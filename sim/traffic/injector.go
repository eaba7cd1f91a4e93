package traffic

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/routing-sim/routing-sim/sim"
)

// Injector composes a Schedule, a PairSelector and PairConstraints under a
// network-wide cap on packets in flight. It implements sim.TrafficInjector.
type Injector struct {
	Schedule         Schedule
	Selector         PairSelector
	Constraints      []PairConstraint
	MaxActivePackets int
}

// NewInjector validates and creates an Injector.
func NewInjector(schedule Schedule, selector PairSelector, constraints []PairConstraint, maxActivePackets int) (*Injector, error) {
	if schedule == nil {
		return nil, errors.New("injector: schedule is required")
	}
	if selector == nil {
		return nil, errors.New("injector: pair selector is required")
	}
	if maxActivePackets < 0 {
		return nil, fmt.Errorf("injector: max_active_packets must be non-negative, got %d", maxActivePackets)
	}
	return &Injector{
		Schedule:         schedule,
		Selector:         selector,
		Constraints:      append([]PairConstraint(nil), constraints...),
		MaxActivePackets: maxActivePackets,
	}, nil
}

// Inject implements sim.TrafficInjector.
//
// The schedule's count is clamped to MaxActivePackets - packets in flight.
// Each unit draws one pair; a pair rejected by any constraint is skipped, not
// redrawn.
func (inj *Injector) Inject(ctx *sim.RuntimeContext, net *sim.Network) error {
	want := inj.Schedule.Count(ctx)
	room := max(0, inj.MaxActivePackets-net.PacketsInFlight())
	n := min(want, room)
	if n < want {
		logrus.Debugf("[tick %07d] backpressure: %d of %d packets admitted", ctx.Tick, n, want)
	}
	for i := 0; i < n; i++ {
		pair := inj.Selector.Select(ctx, net)
		if rejected := inj.rejectedBy(pair, net); rejected != "" {
			logrus.Tracef("[tick %07d] pair %d->%d rejected by %s", ctx.Tick, pair.Origin, pair.Destination, rejected)
			continue
		}
		origin, err := net.Node(pair.Origin)
		if err != nil {
			return fmt.Errorf("inject at tick %d: %w", ctx.Tick, err)
		}
		if _, err := net.Node(pair.Destination); err != nil {
			return fmt.Errorf("inject at tick %d: %w", ctx.Tick, err)
		}
		p := sim.NewPacket(ctx.NextPacketID(), pair.Origin, pair.Destination)
		ctx.Depart(p)
		origin.Enqueue(p)
	}
	return nil
}

func (inj *Injector) rejectedBy(pair sim.NodePair, net *sim.Network) string {
	for _, c := range inj.Constraints {
		if !c.Allow(pair, net) {
			return c.Name()
		}
	}
	return ""
}
