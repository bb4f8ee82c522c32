package world

import (
	"mini-voxel/internal/profiling"
)

// Graph maintains the active chunk set around a viewer. Chunks are indexed by
// coordinate, so the four-way neighbor relation is derived from the map and
// is symmetric by construction. Inactive chunk slots are pooled for reuse.
//
// Graph is not safe for concurrent use; it belongs to the tick thread.
type Graph struct {
	active map[ChunkCoord]*Chunk
	order  []*Chunk // active chunks, nearest ring first
	pool   []*Chunk
	slots  int

	center   ChunkCoord
	radius   int
	streamed bool

	observer func(c *Chunk, from, to State)
}

// StreamResult lists the chunks whose activity changed during a Stream pass.
type StreamResult struct {
	Activated   []*Chunk
	Deactivated []*Chunk
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		active: make(map[ChunkCoord]*Chunk),
	}
}

// SetObserver installs a callback invoked on every chunk state change.
func (g *Graph) SetObserver(fn func(c *Chunk, from, to State)) {
	g.observer = fn
}

// ChunkAt returns the active chunk at coord, or nil.
func (g *Graph) ChunkAt(coord ChunkCoord) *Chunk {
	return g.active[coord]
}

// ChunkAtWorld returns the active chunk containing world column (x, z) along
// with the local column inside it.
func (g *Graph) ChunkAtWorld(x, z int) (*Chunk, int, int) {
	coord, lx, lz := ToLocal(x, z)
	c := g.active[coord]
	if c == nil {
		return nil, 0, 0
	}
	return c, lx, lz
}

// Active returns the active chunks ordered from the streaming center outward.
// The slice is owned by the graph and replaced on the next Stream.
func (g *Graph) Active() []*Chunk { return g.order }

// ActiveCount returns the number of active chunks.
func (g *Graph) ActiveCount() int { return len(g.active) }

// PoolSize returns the number of idle slots waiting for reuse.
func (g *Graph) PoolSize() int { return len(g.pool) }

// Slots returns how many chunk slots were ever allocated.
func (g *Graph) Slots() int { return g.slots }

// Center returns the coordinate of the last streaming pass.
func (g *Graph) Center() ChunkCoord { return g.center }

// Stream activates the square of chunks within radius of the world position
// (x, z). See StreamAround.
func (g *Graph) Stream(x, z float32, radius int) StreamResult {
	return g.StreamAround(CoordAtPosition(x, z), radius)
}

// StreamAround makes the active set equal to the square of coordinates within
// radius of center. Chunks that fall outside are released to the pool first,
// so their slots can serve the newly entered coordinates in the same pass.
// The pass completes before any stage sees the new chunks.
func (g *Graph) StreamAround(center ChunkCoord, radius int) StreamResult {
	defer profiling.Track("world.Graph.StreamAround")()
	var res StreamResult
	if g.streamed && center == g.center && radius == g.radius {
		return res
	}
	g.streamed = true
	g.center = center
	g.radius = radius

	wanted := ringOrder(center, radius)
	want := make(map[ChunkCoord]struct{}, len(wanted))
	for _, coord := range wanted {
		want[coord] = struct{}{}
	}

	for _, c := range g.order {
		if _, ok := want[c.coord]; ok {
			continue
		}
		delete(g.active, c.coord)
		c.release()
		g.pool = append(g.pool, c)
		res.Deactivated = append(res.Deactivated, c)
	}

	order := make([]*Chunk, 0, len(wanted))
	for _, coord := range wanted {
		if c, ok := g.active[coord]; ok {
			order = append(order, c)
			continue
		}
		c := g.acquire()
		c.activate(coord)
		g.active[coord] = c
		order = append(order, c)
		res.Activated = append(res.Activated, c)
	}
	g.order = order
	return res
}

func (g *Graph) acquire() *Chunk {
	if n := len(g.pool); n > 0 {
		c := g.pool[n-1]
		g.pool[n-1] = nil
		g.pool = g.pool[:n-1]
		return c
	}
	g.slots++
	return &Chunk{
		graph:  g,
		pooled: true,
		dirty:  make(map[LocalPos]struct{}),
	}
}

// ringOrder lists the square around center ring by ring, nearest first.
func ringOrder(center ChunkCoord, radius int) []ChunkCoord {
	side := 2*radius + 1
	out := make([]ChunkCoord, 0, side*side)
	out = append(out, center)
	for r := 1; r <= radius; r++ {
		x0, x1 := center.X-r, center.X+r
		z0, z1 := center.Z-r, center.Z+r
		for x := x0; x <= x1; x++ {
			out = append(out, ChunkCoord{X: x, Z: z0})
		}
		for z := z0 + 1; z <= z1-1; z++ {
			out = append(out, ChunkCoord{X: x1, Z: z})
		}
		for x := x1; x >= x0; x-- {
			out = append(out, ChunkCoord{X: x, Z: z1})
		}
		for z := z1 - 1; z >= z0+1; z-- {
			out = append(out, ChunkCoord{X: x0, Z: z})
		}
	}
	return out
}
