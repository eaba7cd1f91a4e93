package sim

import "math"

const (
	// LearningRate is the temporal-difference step size η.
	LearningRate = 0.5
	// StepTime is the transmission cost of one hop, in ticks.
	StepTime = 1.0
	// TieTolerance groups Q-values this close to the minimum as ties.
	TieTolerance = 1e-6
)

// QRouting implements asynchronous Q-routing (Boyan & Littman).
//
// For the head packet with destination d it picks the neighbor y minimizing
// Q(self, y, d), then moves that single estimate toward
// queueTime + StepTime + min_z Q_y(y, z, d).
//
// The neighbor's estimate is read directly from the neighbor's table through
// the network arena rather than exchanged as a message. A strict distributed
// model would replace estimate with a query/response round trip.
type QRouting struct {
	self  NodeID
	table *QTable
}

// QTable implements QTableHolder.
func (q *QRouting) QTable() QTableReader {
	return q.table
}

// OnTick implements RoutingApplication for QRouting.
func (q *QRouting) OnTick(ctx *RuntimeContext, net *Network) {
	p, neighbors, ok := takeHead(ctx, net, q.self)
	if !ok {
		return
	}
	d := p.Destination

	values := make([]float64, len(neighbors))
	for i, y := range neighbors {
		values[i] = q.table.Get(q.self, y, d)
	}
	next := neighbors[pickMinimum(ctx.Rand(), values)]

	old := q.table.Get(q.self, next, d)
	target := float64(p.QueueTime) + StepTime + estimate(net, next, d)
	q.table.Set(q.self, next, d, old+LearningRate*(target-old))

	ctx.Schedule(q.self, next, p)
}

// FullEchoQRouting updates Q(self, y, d) for every neighbor y before choosing,
// then forwards to the neighbor with the lowest updated estimate.
type FullEchoQRouting struct {
	QRouting
}

// OnTick implements RoutingApplication for FullEchoQRouting.
func (f *FullEchoQRouting) OnTick(ctx *RuntimeContext, net *Network) {
	p, neighbors, ok := takeHead(ctx, net, f.self)
	if !ok {
		return
	}
	d := p.Destination
	queued := float64(p.QueueTime)

	values := make([]float64, len(neighbors))
	for i, y := range neighbors {
		old := f.table.Get(f.self, y, d)
		target := queued + StepTime + estimate(net, y, d)
		values[i] = old + LearningRate*(target-old)
		f.table.Set(f.self, y, d, values[i])
	}
	next := neighbors[pickMinimum(ctx.Rand(), values)]

	ctx.Schedule(f.self, next, p)
}

// estimate returns y's best remaining-cost estimate toward d: min over y's
// current neighbors z of Q_y(y, z, d).
func estimate(net *Network, y, d NodeID) float64 {
	return borrowQTable(net, y).MinOver(y, net.mustNode(y).Neighbors(), d)
}

// pickMinimum returns the index of the smallest value. Values within
// TieTolerance of the minimum are ties, broken uniformly at random; the RNG is
// only drawn from when there is more than one candidate.
func pickMinimum(rng *RNG, values []float64) int {
	best := math.Inf(1)
	for _, v := range values {
		best = min(best, v)
	}
	candidates := make([]int, 0, len(values))
	for i, v := range values {
		if v-best <= TieTolerance {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[rng.NextInt(len(candidates))]
}
