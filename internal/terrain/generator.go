package terrain

import (
	"fmt"
	"math"

	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"
)

// Palette holds the block ids terrain generation writes.
type Palette struct {
	Bedrock, Stone, Dirt, Grass, Sand, Water, Log, Leaves world.BlockID
}

// PaletteFrom resolves the palette by name.
func PaletteFrom(reg *registry.Registry) (Palette, error) {
	var p Palette
	for _, e := range []struct {
		name string
		dst  *world.BlockID
	}{
		{registry.Bedrock, &p.Bedrock},
		{registry.Stone, &p.Stone},
		{registry.Dirt, &p.Dirt},
		{registry.Grass, &p.Grass},
		{registry.Sand, &p.Sand},
		{registry.Water, &p.Water},
		{registry.Log, &p.Log},
		{registry.Leaves, &p.Leaves},
	} {
		id, err := reg.IndexOf(e.name)
		if err != nil {
			return Palette{}, fmt.Errorf("terrain palette: %w", err)
		}
		*e.dst = id
	}
	return p, nil
}

// Generator turns oracle heights into voxel columns.
type Generator struct {
	oracle   Oracle
	palette  Palette
	seaLevel int
}

func NewGenerator(oracle Oracle, palette Palette, seaLevel int) *Generator {
	return &Generator{oracle: oracle, palette: palette, seaLevel: seaLevel}
}

// SurfaceAt returns the surface y of world column (x, z), clamped to the
// chunk's vertical range.
func (g *Generator) SurfaceAt(x, z int) int {
	h := int(math.Floor(g.oracle.HeightAt(x, z)))
	return min(max(h, 0), world.ChunkHeight-1)
}

// Generate fills a fresh voxel grid for the chunk at coord and returns it with
// its heightmap. It only reads the oracle, so it is safe to run on a worker.
func (g *Generator) Generate(coord world.ChunkCoord) ([]world.BlockID, []int16) {
	voxels := make([]world.BlockID, world.ChunkVolume)
	heights := make([]int16, world.ColumnCount)
	ox, oz := coord.Origin()
	p := g.palette

	for lx := 0; lx < world.ChunkWidth; lx++ {
		for lz := 0; lz < world.ChunkWidth; lz++ {
			top := g.SurfaceAt(ox+lx, oz+lz)
			column := func(y int, id world.BlockID) {
				voxels[world.Index(lx, y, lz)] = id
			}

			for y := 0; y <= top; y++ {
				switch {
				case y == 0:
					column(y, p.Bedrock)
				case y < top-3:
					column(y, p.Stone)
				case y < top:
					column(y, p.Dirt)
				case top >= g.seaLevel:
					column(y, p.Grass)
				case top >= g.seaLevel-2:
					column(y, p.Sand)
				default:
					column(y, p.Dirt)
				}
			}
			surface := top
			for y := top + 1; y <= g.seaLevel && y < world.ChunkHeight; y++ {
				column(y, p.Water)
				surface = y
			}
			heights[lx*world.ChunkWidth+lz] = int16(surface)
		}
	}
	return voxels, heights
}
