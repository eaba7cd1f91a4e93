package sim

// distanceCache holds per-destination BFS distance maps shared by the
// shortest-path applications of one run. It is dropped wholesale whenever the
// network's topology version moves, which covers node additions as well as
// link removal and restoration by network dynamics.
type distanceCache struct {
	net     *Network
	version uint64
	byDest  map[NodeID][]int
}

func newDistanceCache(net *Network) *distanceCache {
	return &distanceCache{
		net:     net,
		version: net.Version(),
		byDest:  make(map[NodeID][]int),
	}
}

// distancesTo returns the distance map toward dest, computing it lazily.
func (c *distanceCache) distancesTo(dest NodeID) []int {
	if v := c.net.Version(); v != c.version {
		c.version = v
		clear(c.byDest)
	}
	if dist, ok := c.byDest[dest]; ok {
		return dist
	}
	dist, err := c.net.DistancesTo(dest)
	if err != nil {
		// dest comes from an injected packet, which the injector validated.
		panic(err)
	}
	c.byDest[dest] = dist
	return dist
}

// ShortestPath forwards each packet to the neighbor closest (in hops) to its
// destination. Ties go to the lowest neighbor id. When no neighbor has a known
// distance, a neighbor is picked uniformly at random.
type ShortestPath struct {
	self  NodeID
	cache *distanceCache
}

// OnTick implements RoutingApplication for ShortestPath.
func (s *ShortestPath) OnTick(ctx *RuntimeContext, net *Network) {
	p, neighbors, ok := takeHead(ctx, net, s.self)
	if !ok {
		return
	}
	ctx.Schedule(s.self, s.nextHop(ctx, neighbors, p.Destination), p)
}

func (s *ShortestPath) nextHop(ctx *RuntimeContext, neighbors []NodeID, dest NodeID) NodeID {
	dist := s.cache.distancesTo(dest)
	best := NodeID(-1)
	for _, y := range neighbors {
		if dist[y] == Unreachable {
			continue
		}
		// neighbors is ascending, so strict < keeps the lowest id on ties.
		if best < 0 || dist[y] < dist[best] {
			best = y
		}
	}
	if best >= 0 {
		return best
	}
	return neighbors[ctx.Rand().NextInt(len(neighbors))]
}
