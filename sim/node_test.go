package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode_QueueIsFIFO(t *testing.T) {
	n := newNode(0)
	p1, p2, p3 := NewPacket(1, 0, 1), NewPacket(2, 0, 1), NewPacket(3, 0, 1)
	n.Enqueue(p1)
	n.Enqueue(p2)
	n.Enqueue(p3)

	assert.Equal(t, 3, n.QueueLen())
	assert.Same(t, p1, n.Pop())
	assert.Same(t, p2, n.Pop())
	assert.Same(t, p3, n.Pop())
	assert.Nil(t, n.Pop(), "empty queue pops nil")
}

func TestNode_PushFrontRestoresHead(t *testing.T) {
	n := newNode(0)
	p1, p2 := NewPacket(1, 0, 1), NewPacket(2, 0, 1)
	n.Enqueue(p1)
	n.Enqueue(p2)

	head := n.Pop()
	n.PushFront(head)

	assert.Equal(t, []*Packet{p1, p2}, n.Queued())
}

func TestNode_NeighborsStaySortedWithoutDuplicates(t *testing.T) {
	n := newNode(0)
	for _, id := range []NodeID{5, 2, 9, 2, 5} {
		n.addNeighbor(id)
	}
	assert.Equal(t, []NodeID{2, 5, 9}, n.Neighbors())
	assert.True(t, n.HasNeighbor(9))
	assert.False(t, n.HasNeighbor(3))

	assert.True(t, n.removeNeighbor(5))
	assert.False(t, n.removeNeighbor(5))
	assert.Equal(t, []NodeID{2, 9}, n.Neighbors())
	assert.Equal(t, 2, n.Degree())
}

func TestNode_InstallClearsQueue(t *testing.T) {
	n := newNode(0)
	n.Enqueue(NewPacket(1, 0, 1))
	app := &ShortestPath{self: 0}

	n.Install(app)

	assert.Equal(t, 0, n.QueueLen())
	assert.Same(t, app, n.App())
}

func TestPacket_LifecycleStampsOnce(t *testing.T) {
	p := NewPacket(3, 0, 4)
	assert.Equal(t, int64(0), p.DeliveryTime(), "undelivered packet has no delivery time")

	assert.True(t, p.MarkDeparted(2))
	assert.False(t, p.MarkDeparted(5))
	assert.True(t, p.MarkArrived(9))
	assert.False(t, p.MarkArrived(11))

	assert.Equal(t, int64(2), p.DepartedAt)
	assert.Equal(t, int64(9), p.ArrivedAt)
	assert.Equal(t, int64(7), p.DeliveryTime())
}
