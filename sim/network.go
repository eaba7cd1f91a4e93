package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNode is returned when a node id is not present in the network.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNotNeighbors is returned when a send is attempted across a missing link.
	ErrNotNeighbors = errors.New("nodes are not neighbors")
)

// Unreachable marks a node with no path to the destination in a distance map.
const Unreachable = -1

// Network owns the node arena. Nodes are stored by id, so the collection is
// always sorted by id and lookup is an index.
//
// Every structural mutation (AddNode, a Connect or Disconnect that changes
// adjacency) bumps Version, which routing caches compare against to
// invalidate derived state.
type Network struct {
	nodes   []*Node
	version uint64
}

// NewNetwork creates a network of n isolated nodes with ids 0..n-1.
func NewNetwork(n int) *Network {
	net := &Network{nodes: make([]*Node, 0, n)}
	for i := 0; i < n; i++ {
		net.AddNode()
	}
	return net
}

// AddNode appends a new isolated node with the next dense id.
func (net *Network) AddNode() *Node {
	node := newNode(NodeID(len(net.nodes)))
	net.nodes = append(net.nodes, node)
	net.version++
	return node
}

// Len returns the number of nodes.
func (net *Network) Len() int {
	return len(net.nodes)
}

// Nodes returns the arena in id order. Must not be modified.
func (net *Network) Nodes() []*Node {
	return net.nodes
}

// NodeIDs returns all ids in ascending order.
func (net *Network) NodeIDs() []NodeID {
	ids := make([]NodeID, len(net.nodes))
	for i := range net.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// Version returns the topology version counter.
func (net *Network) Version() uint64 {
	return net.version
}

// Node looks up a node by id.
func (net *Network) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(net.nodes) {
		return nil, fmt.Errorf("node %d: %w", id, ErrUnknownNode)
	}
	return net.nodes[id], nil
}

// mustNode is for ids taken from the network's own adjacency, where a miss is a bug.
func (net *Network) mustNode(id NodeID) *Node {
	node, err := net.Node(id)
	if err != nil {
		panic(err)
	}
	return node
}

// Neighbors returns the neighbors of id in ascending order.
func (net *Network) Neighbors(id NodeID) ([]NodeID, error) {
	node, err := net.Node(id)
	if err != nil {
		return nil, err
	}
	return node.Neighbors(), nil
}

// AreNeighbors reports whether a and b share a link. Unknown ids are never neighbors.
func (net *Network) AreNeighbors(a, b NodeID) bool {
	node, err := net.Node(a)
	if err != nil {
		return false
	}
	return node.HasNeighbor(b)
}

// Connect adds the undirected link a-b. It returns how many endpoint lists
// gained an entry: 2 for a new link, 0 if it already existed, 1 if the link
// was half-present.
func (net *Network) Connect(a, b NodeID) (int, error) {
	na, nb, err := net.linkEnds(a, b)
	if err != nil {
		return 0, err
	}
	added := 0
	if na.addNeighbor(b) {
		added++
	}
	if nb.addNeighbor(a) {
		added++
	}
	if added > 0 {
		net.version++
	}
	return added, nil
}

// Disconnect removes the undirected link a-b. It returns how many endpoint
// lists lost an entry: 2 for a full removal, 0 if the link was already absent.
func (net *Network) Disconnect(a, b NodeID) (int, error) {
	na, nb, err := net.linkEnds(a, b)
	if err != nil {
		return 0, err
	}
	removed := 0
	if na.removeNeighbor(b) {
		removed++
	}
	if nb.removeNeighbor(a) {
		removed++
	}
	if removed > 0 {
		net.version++
	}
	return removed, nil
}

func (net *Network) linkEnds(a, b NodeID) (*Node, *Node, error) {
	if a == b {
		return nil, nil, fmt.Errorf("link %d-%d: self links are not allowed", a, b)
	}
	na, err := net.Node(a)
	if err != nil {
		return nil, nil, err
	}
	nb, err := net.Node(b)
	if err != nil {
		return nil, nil, err
	}
	return na, nb, nil
}

// Links returns every undirected link once, as (low, high) pairs in ascending order.
func (net *Network) Links() []Link {
	var links []Link
	for _, node := range net.nodes {
		for _, nb := range node.neighbors {
			if node.ID < nb {
				links = append(links, Link{A: node.ID, B: nb})
			}
		}
	}
	return links
}

// DistancesTo runs a breadth-first search backward from dest over current
// adjacency and returns the hop count from every node to dest, indexed by
// node id. Nodes with no path hold Unreachable.
func (net *Network) DistancesTo(dest NodeID) ([]int, error) {
	if _, err := net.Node(dest); err != nil {
		return nil, err
	}
	dist := make([]int, len(net.nodes))
	for i := range dist {
		dist[i] = Unreachable
	}
	dist[dest] = 0
	frontier := []NodeID{dest}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, nb := range net.nodes[cur].neighbors {
			if dist[nb] == Unreachable {
				dist[nb] = dist[cur] + 1
				frontier = append(frontier, nb)
			}
		}
	}
	return dist, nil
}

// Distance returns the shortest hop count between from and to.
// ok is false when to is unreachable from from.
func (net *Network) Distance(from, to NodeID) (hops int, ok bool, err error) {
	if _, err := net.Node(from); err != nil {
		return 0, false, err
	}
	dist, err := net.DistancesTo(to)
	if err != nil {
		return 0, false, err
	}
	if dist[from] == Unreachable {
		return 0, false, nil
	}
	return dist[from], true, nil
}

// PacketsInFlight returns the sum of all queue lengths.
func (net *Network) PacketsInFlight() int {
	total := 0
	for _, node := range net.nodes {
		total += len(node.queue)
	}
	return total
}

// ageQueuedPackets adds one tick of queue time to every queued packet.
func (net *Network) ageQueuedPackets() {
	for _, node := range net.nodes {
		for _, p := range node.queue {
			p.QueueTime++
		}
	}
}

// SendPacket moves p from one node to a neighbor: it validates the link,
// emits a HopEvent, resets the packet's queue time and enqueues it at the receiver.
func (net *Network) SendPacket(ctx *RuntimeContext, from, to NodeID, p *Packet) error {
	sender, err := net.Node(from)
	if err != nil {
		return fmt.Errorf("send packet %d: %w", p.ID, err)
	}
	receiver, err := net.Node(to)
	if err != nil {
		return fmt.Errorf("send packet %d: %w", p.ID, err)
	}
	if !sender.HasNeighbor(to) {
		return fmt.Errorf("send packet %d from %d to %d: %w", p.ID, from, to, ErrNotNeighbors)
	}
	ctx.Emit(HopEvent{
		PacketID:            p.ID,
		From:                from,
		To:                  to,
		SentTick:            ctx.Tick,
		ExpectedReceiveTick: ctx.Tick + 1,
		Algorithm:           ctx.Algorithm,
	})
	p.QueueTime = 0
	p.Hops++
	receiver.Enqueue(p)
	return nil
}
