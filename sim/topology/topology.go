// Package topology builds simulation networks and analyzes their connectivity.
package topology

import (
	"fmt"

	"github.com/routing-sim/routing-sim/sim"
)

// Line builds the chain 0-1-...-(n-1).
func Line(n int) (*sim.Network, error) {
	if n < 2 {
		return nil, fmt.Errorf("line: need at least 2 nodes, got %d", n)
	}
	links := make([]sim.Link, 0, n-1)
	for i := 0; i < n-1; i++ {
		links = append(links, sim.Link{A: sim.NodeID(i), B: sim.NodeID(i + 1)})
	}
	return FromLinks(n, links)
}

// Ring builds a cycle of n nodes.
func Ring(n int) (*sim.Network, error) {
	if n < 3 {
		return nil, fmt.Errorf("ring: need at least 3 nodes, got %d", n)
	}
	links := make([]sim.Link, 0, n)
	for i := 0; i < n; i++ {
		links = append(links, sim.Link{A: sim.NodeID(i), B: sim.NodeID((i + 1) % n)})
	}
	return FromLinks(n, links)
}

// GridID returns the id of the node at (row, col) in a grid of the given width.
func GridID(width, row, col int) sim.NodeID {
	return sim.NodeID(row*width + col)
}

// Grid builds a width x height 4-connected grid with row-major ids.
func Grid(width, height int) (*sim.Network, error) {
	if width < 1 || height < 1 || width*height < 2 {
		return nil, fmt.Errorf("grid: need at least 2 nodes, got %dx%d", width, height)
	}
	var links []sim.Link
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			if c+1 < width {
				links = append(links, sim.Link{A: GridID(width, r, c), B: GridID(width, r, c+1)})
			}
			if r+1 < height {
				links = append(links, sim.Link{A: GridID(width, r, c), B: GridID(width, r+1, c)})
			}
		}
	}
	return FromLinks(width*height, links)
}

// HoleyGridRemovedLinks are the links cut from the 6x6 grid by HoleyGrid6x6:
// a wall between columns 2 and 3 open only on the bottom row, and a wall
// between rows 2 and 3 open only at columns 2 and 3.
var HoleyGridRemovedLinks = []sim.Link{
	{A: 2, B: 3}, {A: 8, B: 9}, {A: 14, B: 15}, {A: 20, B: 21}, {A: 26, B: 27},
	{A: 12, B: 18}, {A: 13, B: 19}, {A: 16, B: 22}, {A: 17, B: 23},
}

// HoleyGrid6x6 builds the 6x6 grid with HoleyGridRemovedLinks removed. The
// result stays connected, with only narrow passages between its quadrants.
func HoleyGrid6x6() *sim.Network {
	net, err := Grid(6, 6)
	if err != nil {
		panic(err)
	}
	for _, l := range HoleyGridRemovedLinks {
		if _, err := net.Disconnect(l.A, l.B); err != nil {
			panic(err)
		}
	}
	return net
}

// FromLinks builds an n-node network from an explicit link list.
// Duplicate links are ignored.
func FromLinks(n int, links []sim.Link) (*sim.Network, error) {
	if n < 1 {
		return nil, fmt.Errorf("topology: need at least 1 node, got %d", n)
	}
	net := sim.NewNetwork(n)
	for _, l := range links {
		if _, err := net.Connect(l.A, l.B); err != nil {
			return nil, fmt.Errorf("topology: link %d-%d: %w", l.A, l.B, err)
		}
	}
	return net, nil
}
