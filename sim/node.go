package sim

import "slices"

// Node is one router in the network arena.
//
// A node does not own its neighbors: the neighbor list is a sorted set of ids
// into the same arena, kept symmetric by Network.Connect and Network.Disconnect.
type Node struct {
	ID NodeID

	neighbors []NodeID // ascending, no duplicates
	// queue is FIFO; the head is queue[0].
	queue []*Packet
	app   RoutingApplication
}

func newNode(id NodeID) *Node {
	return &Node{ID: id}
}

// Neighbors returns the current neighbor ids in ascending order.
// The returned slice is owned by the node and must not be modified.
func (n *Node) Neighbors() []NodeID {
	return n.neighbors
}

// Degree returns the number of current neighbors.
func (n *Node) Degree() int {
	return len(n.neighbors)
}

// HasNeighbor reports whether id is a current neighbor.
func (n *Node) HasNeighbor(id NodeID) bool {
	_, found := slices.BinarySearch(n.neighbors, id)
	return found
}

func (n *Node) addNeighbor(id NodeID) bool {
	i, found := slices.BinarySearch(n.neighbors, id)
	if found {
		return false
	}
	n.neighbors = slices.Insert(n.neighbors, i, id)
	return true
}

func (n *Node) removeNeighbor(id NodeID) bool {
	i, found := slices.BinarySearch(n.neighbors, id)
	if !found {
		return false
	}
	n.neighbors = slices.Delete(n.neighbors, i, i+1)
	return true
}

// Enqueue appends p to the tail of the queue.
func (n *Node) Enqueue(p *Packet) {
	n.queue = append(n.queue, p)
}

// PushFront puts p back at the head of the queue.
func (n *Node) PushFront(p *Packet) {
	n.queue = append([]*Packet{p}, n.queue...)
}

// Pop removes and returns the head of the queue, or nil if the queue is empty.
func (n *Node) Pop() *Packet {
	if len(n.queue) == 0 {
		return nil
	}
	p := n.queue[0]
	n.queue[0] = nil
	n.queue = n.queue[1:]
	return p
}

// QueueLen returns the number of queued packets.
func (n *Node) QueueLen() int {
	return len(n.queue)
}

// Queued returns the queued packets, head first. Must not be modified.
func (n *Node) Queued() []*Packet {
	return n.queue
}

// App returns the installed routing application (nil before the first Install).
func (n *Node) App() RoutingApplication {
	return n.app
}

// Install clears the queue and installs app. Called once per algorithm run.
func (n *Node) Install(app RoutingApplication) {
	n.queue = nil
	n.app = app
}
