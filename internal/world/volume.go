package world

// Volume is an immutable copy of a chunk's voxels padded by Margin columns on
// every side, filled through the same neighbor redirection GetBlockId uses.
// Background stages read a Volume instead of the live chunk.
type Volume struct {
	Coord  ChunkCoord
	Margin int

	size   int // padded width
	blocks []BlockID
}

// SnapshotVolume copies c and the margin columns of its neighbors. Must run on
// the thread that owns the chunks.
func SnapshotVolume(c *Chunk, margin int) *Volume {
	size := ChunkWidth + 2*margin
	v := &Volume{
		Coord:  c.coord,
		Margin: margin,
		size:   size,
		blocks: make([]BlockID, size*size*ChunkHeight),
	}
	for x := -margin; x < ChunkWidth+margin; x++ {
		for z := -margin; z < ChunkWidth+margin; z++ {
			owner, lx, lz := c.columnOwner(x, z)
			if owner == nil || owner.voxels == nil {
				continue
			}
			src := owner.voxels
			base := v.offset(x, z)
			for y := 0; y < ChunkHeight; y++ {
				v.blocks[base+y] = src[Index(lx, y, lz)]
			}
		}
	}
	return v
}

// NewVolume builds a volume from a bare voxel grid with no neighbor data.
func NewVolume(coord ChunkCoord, voxels []BlockID, margin int) *Volume {
	size := ChunkWidth + 2*margin
	v := &Volume{
		Coord:  coord,
		Margin: margin,
		size:   size,
		blocks: make([]BlockID, size*size*ChunkHeight),
	}
	if voxels == nil {
		return v
	}
	for x := 0; x < ChunkWidth; x++ {
		for z := 0; z < ChunkWidth; z++ {
			base := v.offset(x, z)
			for y := 0; y < ChunkHeight; y++ {
				v.blocks[base+y] = voxels[Index(x, y, z)]
			}
		}
	}
	return v
}

func (v *Volume) offset(x, z int) int {
	return ((x+v.Margin)*v.size + (z + v.Margin)) * ChunkHeight
}

// Get returns the block at chunk-local coordinates. Positions beyond the
// margin or the vertical range read as air.
func (v *Volume) Get(x, y, z int) BlockID {
	if y < 0 || y >= ChunkHeight {
		return BlockAir
	}
	if x < -v.Margin || x >= ChunkWidth+v.Margin || z < -v.Margin || z >= ChunkWidth+v.Margin {
		return BlockAir
	}
	return v.blocks[v.offset(x, z)+y]
}

// SurfaceHeight returns the highest non-air y of a column, or -1.
func (v *Volume) SurfaceHeight(x, z int) int {
	for y := ChunkHeight - 1; y >= 0; y-- {
		if v.Get(x, y, z) != BlockAir {
			return y
		}
	}
	return -1
}
