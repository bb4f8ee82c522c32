package terrain

import (
	"mini-voxel/internal/world"
)

// TreeDecorator grows a log trunk topped by a leaf canopy.
type TreeDecorator struct {
	Log, Leaves, Dirt world.BlockID

	MinTrunk int
	MaxTrunk int
}

func NewTreeDecorator(p Palette) *TreeDecorator {
	return &TreeDecorator{
		Log:      p.Log,
		Leaves:   p.Leaves,
		Dirt:     p.Dirt,
		MinTrunk: 4,
		MaxTrunk: 6,
	}
}

func (t *TreeDecorator) Reach() int { return 2 }

func (t *TreeDecorator) Decorate(p Placer, col Column) error {
	trunk := t.MinTrunk
	if span := t.MaxTrunk - t.MinTrunk + 1; span > 1 {
		trunk += int(col.Rand % uint64(span))
	}
	top := col.Y + trunk
	if top+2 >= world.ChunkHeight {
		return nil
	}

	// canopy: two wide layers around the top of the trunk, two narrow above
	for dy := -1; dy <= 2; dy++ {
		radius := 2
		if dy > 0 {
			radius = 1
		}
		y := top + dy
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				corner := abs(dx) == radius && abs(dz) == radius
				if corner && (dy == 2 || (col.Rand>>uint(8+dx+dz+dy))&1 == 0) {
					continue
				}
				if p.GetBlockId(col.X+dx, y, col.Z+dz) == world.BlockAir {
					p.SetBlock(col.X+dx, y, col.Z+dz, t.Leaves)
				}
			}
		}
	}

	p.SetBlock(col.X, col.Y, col.Z, t.Dirt)
	for y := col.Y + 1; y <= top; y++ {
		p.SetBlock(col.X, y, col.Z, t.Log)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
