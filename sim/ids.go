package sim

import "strconv"

// NodeID identifies a node. Ids are dense: a network of n nodes holds ids 0..n-1,
// and the id doubles as the node's index in the network arena.
type NodeID int

func (id NodeID) String() string { return strconv.Itoa(int(id)) }

// PacketID identifies a packet within one algorithm run.
// Ids are allocated sequentially from 0 by RuntimeContext.NextPacketID.
type PacketID int64

func (id PacketID) String() string { return strconv.FormatInt(int64(id), 10) }

// NodePair is an (origin, destination) pair produced by traffic pair selection.
type NodePair struct {
	Origin      NodeID
	Destination NodeID
}

// Link is an undirected link between two nodes.
type Link struct {
	A NodeID `yaml:"a" json:"a"`
	B NodeID `yaml:"b" json:"b"`
}
