package traffic

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/routing-sim/routing-sim/sim"
)

// PairSelector picks the origin and destination of the next packet.
type PairSelector interface {
	Select(ctx *sim.RuntimeContext, net *sim.Network) sim.NodePair
}

// drawDistinct draws a destination from nodes, redrawing until it differs from origin.
// nodes must contain at least one id other than origin.
func drawDistinct(rng *sim.RNG, nodes []sim.NodeID, origin sim.NodeID) sim.NodeID {
	for {
		d := nodes[rng.NextInt(len(nodes))]
		if d != origin {
			return d
		}
	}
}

// Random picks origin and destination uniformly over all nodes, with the
// destination redrawn until it differs from the origin.
type Random struct{}

// Select implements PairSelector. The network must hold at least two nodes.
func (Random) Select(ctx *sim.RuntimeContext, net *sim.Network) sim.NodePair {
	n := net.Len()
	if n < 2 {
		panic("Random.Select: network needs at least two nodes")
	}
	rng := ctx.Rand()
	origin := sim.NodeID(rng.NextInt(n))
	return sim.NodePair{Origin: origin, Destination: drawDistinct(rng, net.NodeIDs(), origin)}
}

// RandomInGroups picks a named group uniformly, then origin and a distinct
// destination uniformly within it.
type RandomInGroups struct {
	names  []string
	groups map[string][]sim.NodeID
}

// NewRandomInGroups validates groups: at least one group, each with at least
// two distinct nodes.
func NewRandomInGroups(groups map[string][]sim.NodeID) (*RandomInGroups, error) {
	if len(groups) == 0 {
		return nil, errors.New("random-in-groups: at least one group is required")
	}
	r := &RandomInGroups{groups: make(map[string][]sim.NodeID, len(groups))}
	for name, members := range groups {
		uniq := uniqueSorted(members)
		if len(uniq) < 2 {
			return nil, fmt.Errorf("random-in-groups: group %q needs at least two distinct nodes, got %d", name, len(uniq))
		}
		r.groups[name] = uniq
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Select implements PairSelector.
func (r *RandomInGroups) Select(ctx *sim.RuntimeContext, _ *sim.Network) sim.NodePair {
	rng := ctx.Rand()
	members := r.groups[r.names[rng.NextInt(len(r.names))]]
	origin := members[rng.NextInt(len(members))]
	return sim.NodePair{Origin: origin, Destination: drawDistinct(rng, members, origin)}
}

// Groups returns every referenced node id, for validation against a network.
func (r *RandomInGroups) Groups() map[string][]sim.NodeID {
	return r.groups
}

// OscillatingBetweenGroups sends from group A to group B, flipping direction
// every PeriodTicks ticks: (tick / period) even means A to B.
type OscillatingBetweenGroups struct {
	A           []sim.NodeID
	B           []sim.NodeID
	PeriodTicks int64
}

// NewOscillatingBetweenGroups validates and creates the selector. The groups
// must be non-empty and disjoint.
func NewOscillatingBetweenGroups(a, b []sim.NodeID, periodTicks int64) (*OscillatingBetweenGroups, error) {
	if periodTicks <= 0 {
		return nil, fmt.Errorf("oscillating-between-groups: period_ticks must be positive, got %d", periodTicks)
	}
	a, b = uniqueSorted(a), uniqueSorted(b)
	if len(a) == 0 || len(b) == 0 {
		return nil, errors.New("oscillating-between-groups: both groups must be non-empty")
	}
	for _, id := range a {
		if _, found := slices.BinarySearch(b, id); found {
			return nil, fmt.Errorf("oscillating-between-groups: node %d is in both groups", id)
		}
	}
	return &OscillatingBetweenGroups{A: a, B: b, PeriodTicks: periodTicks}, nil
}

// Direction returns the source and target groups at tick.
func (o *OscillatingBetweenGroups) Direction(tick int64) (from, to []sim.NodeID) {
	if (tick/o.PeriodTicks)%2 == 0 {
		return o.A, o.B
	}
	return o.B, o.A
}

// Select implements PairSelector.
func (o *OscillatingBetweenGroups) Select(ctx *sim.RuntimeContext, _ *sim.Network) sim.NodePair {
	rng := ctx.Rand()
	from, to := o.Direction(ctx.Tick)
	return sim.NodePair{
		Origin:      from[rng.NextInt(len(from))],
		Destination: to[rng.NextInt(len(to))],
	}
}

func uniqueSorted(ids []sim.NodeID) []sim.NodeID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// === Constraints ===

// PairConstraint filters selected pairs. Constraints compose by logical AND.
type PairConstraint interface {
	Allow(pair sim.NodePair, net *sim.Network) bool
	Name() string
}

// DisallowSelf rejects pairs whose origin equals their destination.
type DisallowSelf struct{}

func (DisallowSelf) Allow(pair sim.NodePair, _ *sim.Network) bool {
	return pair.Origin != pair.Destination
}

func (DisallowSelf) Name() string { return "disallow-self" }

// DisallowNeighbor rejects pairs whose destination is adjacent to the origin
// at selection time.
type DisallowNeighbor struct{}

func (DisallowNeighbor) Allow(pair sim.NodePair, net *sim.Network) bool {
	return !net.AreNeighbors(pair.Origin, pair.Destination)
}

func (DisallowNeighbor) Name() string { return "disallow-neighbor" }

// NewConstraint creates a constraint by name.
func NewConstraint(name string) (PairConstraint, error) {
	switch name {
	case "disallow-self":
		return DisallowSelf{}, nil
	case "disallow-neighbor":
		return DisallowNeighbor{}, nil
	default:
		return nil, fmt.Errorf("unknown pair constraint %q", name)
	}
}
