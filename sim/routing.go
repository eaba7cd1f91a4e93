package sim

import (
	"fmt"
	"sort"
)

// Algorithm names a routing policy.
type Algorithm string

const (
	AlgorithmQRouting         Algorithm = "q-routing"
	AlgorithmFullEchoQRouting Algorithm = "full-echo-q-routing"
	AlgorithmShortestPath     Algorithm = "shortest-path"
)

// validAlgorithms is shared by IsValidAlgorithm and NewRoutingFactory.
var validAlgorithms = map[Algorithm]bool{
	AlgorithmQRouting:         true,
	AlgorithmFullEchoQRouting: true,
	AlgorithmShortestPath:     true,
}

// IsValidAlgorithm returns true if name is a recognized routing algorithm.
func IsValidAlgorithm(name string) bool {
	return validAlgorithms[Algorithm(name)]
}

// ValidAlgorithmNames returns the recognized algorithm names, sorted.
func ValidAlgorithmNames() []string {
	names := make([]string, 0, len(validAlgorithms))
	for a := range validAlgorithms {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}

// RoutingApplication is the per-node decision process invoked once per tick.
//
// OnTick pops at most one packet from the node's queue. A packet addressed to
// the node is delivered; any other packet is forwarded by scheduling a send to
// one current neighbor via RuntimeContext.Schedule. Sends are buffered, so
// every node in a tick observes the network as it was at the start of the tick.
type RoutingApplication interface {
	OnTick(ctx *RuntimeContext, net *Network)
}

// RoutingFactory builds the application for one node.
type RoutingFactory func(self NodeID) RoutingApplication

// NewRoutingFactory returns a factory for algorithm. State shared between the
// nodes of one run (the shortest-path distance cache) is created here, so call
// it once per algorithm run.
// Panics on unrecognized names.
func NewRoutingFactory(algorithm Algorithm, net *Network) RoutingFactory {
	if !validAlgorithms[algorithm] {
		panic(fmt.Sprintf("unknown routing algorithm %q", algorithm))
	}
	switch algorithm {
	case AlgorithmQRouting:
		return func(self NodeID) RoutingApplication {
			return &QRouting{self: self, table: NewQTable()}
		}
	case AlgorithmFullEchoQRouting:
		return func(self NodeID) RoutingApplication {
			return &FullEchoQRouting{QRouting{self: self, table: NewQTable()}}
		}
	case AlgorithmShortestPath:
		cache := newDistanceCache(net)
		return func(self NodeID) RoutingApplication {
			return &ShortestPath{self: self, cache: cache}
		}
	default:
		panic(fmt.Sprintf("unhandled routing algorithm %q", algorithm))
	}
}

// takeHead pops the head packet of self's queue and handles the cases shared
// by every policy. It returns ok=false when there is nothing to route: the
// queue was empty, the packet was delivered here, or the node is isolated (the
// packet goes back to the head of the queue to wait for reconnection).
func takeHead(ctx *RuntimeContext, net *Network, self NodeID) (p *Packet, neighbors []NodeID, ok bool) {
	node := net.mustNode(self)
	p = node.Pop()
	if p == nil {
		return nil, nil, false
	}
	if p.Destination == self {
		ctx.Deliver(p)
		return nil, nil, false
	}
	neighbors = node.Neighbors()
	if len(neighbors) == 0 {
		node.PushFront(p)
		return nil, nil, false
	}
	return p, neighbors, true
}
