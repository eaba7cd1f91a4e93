package sim

import "math"

type qKey struct {
	From NodeID
	To   NodeID
	Dest NodeID
}

// QTableReader is the read-only view of a Q-table that other nodes may borrow.
type QTableReader interface {
	Get(from, to, dest NodeID) float64
	MinOver(from NodeID, neighbors []NodeID, dest NodeID) float64
}

// QTable is a sparse map from (from, to-neighbor, destination) to an estimated
// delivery cost. Unseen keys read as 0.0. Only the owning node's routing
// application writes to it.
type QTable struct {
	values map[qKey]float64
}

// NewQTable creates an empty table.
func NewQTable() *QTable {
	return &QTable{values: make(map[qKey]float64)}
}

// Get returns Q(from, to, dest), 0.0 if unseen.
func (t *QTable) Get(from, to, dest NodeID) float64 {
	return t.values[qKey{From: from, To: to, Dest: dest}]
}

// Set stores Q(from, to, dest).
func (t *QTable) Set(from, to, dest NodeID, v float64) {
	t.values[qKey{From: from, To: to, Dest: dest}] = v
}

// Len returns the number of stored entries.
func (t *QTable) Len() int {
	return len(t.values)
}

// MinOver returns min over neighbors y of Q(from, y, dest), 0.0 if neighbors is empty.
func (t *QTable) MinOver(from NodeID, neighbors []NodeID, dest NodeID) float64 {
	if len(neighbors) == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, y := range neighbors {
		best = min(best, t.Get(from, y, dest))
	}
	return best
}

// QTableHolder is implemented by routing applications that own a Q-table.
type QTableHolder interface {
	QTable() QTableReader
}

// emptyQTable answers for nodes without a Q-table.
var emptyQTable QTableReader = &QTable{values: map[qKey]float64{}}

// borrowQTable returns a read-only view of node id's Q-table through the arena.
func borrowQTable(net *Network, id NodeID) QTableReader {
	holder, ok := net.mustNode(id).App().(QTableHolder)
	if !ok {
		return emptyQTable
	}
	return holder.QTable()
}
