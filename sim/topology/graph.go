package topology

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/routing-sim/routing-sim/sim"
)

// Graph converts the current adjacency of net into a gonum undirected graph
// whose node ids equal the simulator's node ids.
func Graph(net *sim.Network) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for _, node := range net.Nodes() {
		g.AddNode(simple.Node(node.ID))
	}
	for _, l := range net.Links() {
		g.SetEdge(g.NewEdge(simple.Node(l.A), simple.Node(l.B)))
	}
	return g
}

// Components returns the connected components of net, each sorted by id and
// ordered by their lowest id.
func Components(net *sim.Network) [][]sim.NodeID {
	cc := topo.ConnectedComponents(Graph(net))
	out := make([][]sim.NodeID, 0, len(cc))
	for _, comp := range cc {
		ids := make([]sim.NodeID, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, sim.NodeID(n.ID()))
		}
		slices.Sort(ids)
		out = append(out, ids)
	}
	slices.SortFunc(out, func(a, b []sim.NodeID) int { return int(a[0] - b[0]) })
	return out
}

// Connected reports whether every node can reach every other node.
func Connected(net *sim.Network) bool {
	if net.Len() <= 1 {
		return true
	}
	return len(Components(net)) == 1
}

// HopDistancesFrom returns hop counts from src to every node, computed with
// gonum's Dijkstra over unit-cost edges. Unreachable nodes hold sim.Unreachable.
func HopDistancesFrom(net *sim.Network, src sim.NodeID) []int {
	return hopDistances(Graph(net), net.Len(), src)
}

func hopDistances(g *simple.UndirectedGraph, n int, src sim.NodeID) []int {
	sp := path.DijkstraFrom(simple.Node(src), g)
	dist := make([]int, n)
	for i := range dist {
		w := sp.WeightTo(int64(i))
		if math.IsInf(w, 1) {
			dist[i] = sim.Unreachable
			continue
		}
		dist[i] = int(w)
	}
	return dist
}

// Diameter returns the longest shortest-path hop count between any two nodes.
// ok is false when the network is disconnected.
func Diameter(net *sim.Network) (diameter int, ok bool) {
	g := Graph(net)
	for _, node := range net.Nodes() {
		for _, d := range hopDistances(g, net.Len(), node.ID) {
			if d == sim.Unreachable {
				return 0, false
			}
			diameter = max(diameter, d)
		}
	}
	return diameter, true
}
