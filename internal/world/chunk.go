package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Chunk dimensions
	ChunkWidth  = 16
	ChunkHeight = 255

	ChunkVolume = ChunkWidth * ChunkHeight * ChunkWidth
	ColumnCount = ChunkWidth * ChunkWidth
)

// Chunk represents a 16x255x16 column of the world.
//
// A Chunk is owned by the tick thread. Background work never touches its
// fields directly; it reads a Volume snapshot and hands results back through
// the pipeline's completion queue.
type Chunk struct {
	coord      ChunkCoord
	state      State
	generation uint64
	pooled     bool

	voxels    []BlockID // nil until noise completes
	heightmap []int16   // highest non-air y per column, -1 when empty

	graph *Graph

	dirty           map[LocalPos]struct{}
	awaitingRebuild bool
	inFlight        bool

	pending    [NumLayers][]Vertex
	hasPending [NumLayers]bool
	slots      [NumLayers]BatchSlot

	bounds AABB
}

// NewChunk creates a chunk at coord that is not attached to any graph.
func NewChunk(coord ChunkCoord) *Chunk {
	c := &Chunk{dirty: make(map[LocalPos]struct{})}
	c.activate(coord)
	return c
}

// Index flattens local coordinates into the voxel grid. X is the outer axis
// and Z the inner one.
func Index(x, y, z int) int {
	return x*ChunkHeight*ChunkWidth + y*ChunkWidth + z
}

func (c *Chunk) Coord() ChunkCoord  { return c.coord }
func (c *Chunk) State() State       { return c.state }
func (c *Chunk) IsPooled() bool     { return c.pooled }
func (c *Chunk) Generation() uint64 { return c.generation }

// Voxels exposes the voxel grid. Callers must not mutate it.
func (c *Chunk) Voxels() []BlockID { return c.voxels }

// Heightmap exposes the per-column surface heights. Callers must not mutate it.
func (c *Chunk) Heightmap() []int16 { return c.heightmap }

// BoundingBox returns the world-space bounds of the generated terrain.
func (c *Chunk) BoundingBox() AABB { return c.bounds }

// Transform returns the chunk's model matrix.
func (c *Chunk) Transform() mgl32.Mat4 {
	ox, oz := c.coord.Origin()
	return mgl32.Translate3D(float32(ox), 0, float32(oz))
}

// Neighbor returns the active chunk across the border in direction d, or nil.
func (c *Chunk) Neighbor(d Direction) *Chunk {
	if c.pooled || c.graph == nil {
		return nil
	}
	return c.graph.ChunkAt(c.coord.Step(d))
}

// Advance applies trigger t through the shared transition table.
func (c *Chunk) Advance(t Trigger) error {
	next, err := Advance(c.state, t)
	if err != nil {
		return err
	}
	prev := c.state
	c.state = next
	if c.graph != nil && c.graph.observer != nil && prev != next {
		c.graph.observer(c, prev, next)
	}
	return nil
}

// NeighborsAtLeast reports whether all four neighbors are active and have
// reached s. An absent neighbor blocks.
func (c *Chunk) NeighborsAtLeast(s State) bool {
	for _, d := range Directions {
		if n := c.Neighbor(d); n == nil || n.state < s {
			return false
		}
	}
	return true
}

// SetTerrain installs generated voxel data and derives the bounding box.
func (c *Chunk) SetTerrain(voxels []BlockID, heightmap []int16) {
	c.voxels = voxels
	c.heightmap = heightmap
	c.recomputeBounds()
}

// GetBlockId returns the block at local coordinates, following neighbor links
// when x or z fall outside the chunk. Missing data reads as air.
func (c *Chunk) GetBlockId(x, y, z int) BlockID {
	if y < 0 || y >= ChunkHeight {
		return BlockAir
	}
	owner, lx, lz := c.columnOwner(x, z)
	if owner == nil || owner.voxels == nil {
		return BlockAir
	}
	return owner.voxels[Index(lx, y, lz)]
}

// SetBlock writes a block as an edit: the position is logged as dirty and a
// mesh rebuild is requested on whichever chunk owns it.
func (c *Chunk) SetBlock(x, y, z int, id BlockID) {
	c.setBlock(x, y, z, id, false)
}

// SetDecorationBlock writes a block as part of bulk decoration. No dirty
// position is logged.
func (c *Chunk) SetDecorationBlock(x, y, z int, id BlockID) {
	c.setBlock(x, y, z, id, true)
}

func (c *Chunk) setBlock(x, y, z int, id BlockID, decoration bool) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	owner, lx, lz := c.columnOwner(x, z)
	if owner == nil {
		return
	}
	owner.setLocal(lx, y, lz, id, decoration)
}

func (c *Chunk) setLocal(x, y, z int, id BlockID, decoration bool) {
	if c.voxels == nil {
		return
	}
	i := Index(x, y, z)
	if c.voxels[i] == id {
		return
	}
	c.voxels[i] = id
	c.updateColumnHeight(x, z)

	if decoration {
		// already meshed geometry no longer matches
		if c.state >= StateMeshConstructing {
			c.awaitingRebuild = true
		}
		return
	}
	c.dirty[LocalPos{X: x, Y: y, Z: z}] = struct{}{}
	c.RebuildMesh()
}

// columnOwner walks neighbor links until (x, z) is local to a chunk.
func (c *Chunk) columnOwner(x, z int) (*Chunk, int, int) {
	ch := c
	for ch != nil {
		switch {
		case x < 0:
			ch, x = ch.Neighbor(West), x+ChunkWidth
		case x >= ChunkWidth:
			ch, x = ch.Neighbor(East), x-ChunkWidth
		case z < 0:
			ch, z = ch.Neighbor(South), z+ChunkWidth
		case z >= ChunkWidth:
			ch, z = ch.Neighbor(North), z-ChunkWidth
		default:
			return ch, x, z
		}
	}
	return nil, 0, 0
}

// RebuildMesh propagates the accumulated dirty positions to the neighbors
// whose borders they touch, clears them, and flags this chunk for rebuild.
func (c *Chunk) RebuildMesh() {
	var touched [4]bool
	for p := range c.dirty {
		if p.X == ChunkWidth-1 {
			touched[East] = true
		}
		if p.X == 0 {
			touched[West] = true
		}
		if p.Z == ChunkWidth-1 {
			touched[North] = true
		}
		if p.Z == 0 {
			touched[South] = true
		}
	}
	clear(c.dirty)
	c.awaitingRebuild = true

	for _, d := range Directions {
		if !touched[d] {
			continue
		}
		if n := c.Neighbor(d); n != nil {
			n.RebuildMesh()
		}
	}
}

func (c *Chunk) IsAwaitingRebuild() bool { return c.awaitingRebuild }

// ClearRebuildRequest drops a pending rebuild request. The mesh stage calls it
// when it snapshots the chunk, since the snapshot already holds every edit.
func (c *Chunk) ClearRebuildRequest() { c.awaitingRebuild = false }

// DirtyPositions returns the positions edited since the last rebuild.
func (c *Chunk) DirtyPositions() []LocalPos {
	out := make([]LocalPos, 0, len(c.dirty))
	for p := range c.dirty {
		out = append(out, p)
	}
	return out
}

// InFlight reports whether a background stage is running for this chunk.
func (c *Chunk) InFlight() bool     { return c.inFlight }
func (c *Chunk) SetInFlight(v bool) { c.inFlight = v }

// Slot returns the chunk's batch membership for layer l.
func (c *Chunk) Slot(l Layer) BatchSlot {
	return c.slots[l]
}

func (c *Chunk) SetSlot(l Layer, s BatchSlot) {
	c.slots[l] = s
}

// SetPending stores freshly built geometry for the batch allocator.
func (c *Chunk) SetPending(l Layer, vs []Vertex) {
	c.pending[l] = vs
	c.hasPending[l] = true
}

// Pending returns the geometry waiting for batching. ok is false once consumed.
func (c *Chunk) Pending(l Layer) (vs []Vertex, ok bool) {
	return c.pending[l], c.hasPending[l]
}

func (c *Chunk) ClearPending(l Layer) {
	c.pending[l] = nil
	c.hasPending[l] = false
}

// SurfaceHeight returns the highest non-air y in local column (x, z), or -1.
func (c *Chunk) SurfaceHeight(x, z int) int {
	if c.heightmap == nil || x < 0 || x >= ChunkWidth || z < 0 || z >= ChunkWidth {
		return -1
	}
	return int(c.heightmap[x*ChunkWidth+z])
}

func (c *Chunk) updateColumnHeight(x, z int) {
	if c.heightmap == nil {
		return
	}
	h := -1
	for y := ChunkHeight - 1; y >= 0; y-- {
		if c.voxels[Index(x, y, z)] != BlockAir {
			h = y
			break
		}
	}
	c.heightmap[x*ChunkWidth+z] = int16(h)
	c.recomputeBounds()
}

func (c *Chunk) recomputeBounds() {
	ox, oz := c.coord.Origin()
	top := -1
	for _, h := range c.heightmap {
		top = max(top, int(h))
	}
	lo := mgl32.Vec3{float32(ox), 0, float32(oz)}
	if top < 0 {
		c.bounds = AABB{Min: lo, Max: lo}
		return
	}
	c.bounds = AABB{
		Min: lo,
		Max: mgl32.Vec3{float32(ox + ChunkWidth), float32(top + 1), float32(oz + ChunkWidth)},
	}
}

// activate assigns the slot to coord and starts a new generation.
func (c *Chunk) activate(coord ChunkCoord) {
	c.coord = coord
	c.pooled = false
	c.generation++
	c.recomputeBounds()
}

// release clears everything tied to the chunk's current identity. Batch
// slots survive until the batch driver reconciles the removal.
func (c *Chunk) release() {
	_ = c.Advance(TriggerReset)
	c.pooled = true
	c.generation++
	c.voxels = nil
	c.heightmap = nil
	clear(c.dirty)
	c.awaitingRebuild = false
	c.inFlight = false
	for l := range c.pending {
		c.pending[l] = nil
		c.hasPending[l] = false
	}
	c.bounds = AABB{}
}
