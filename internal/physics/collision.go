package physics

import (
	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Collides reports whether box overlaps the collision shape of any block.
func Collides(box world.AABB, src BlockSource, reg *registry.Registry) bool {
	for x := floor(box.Min.X()); x <= floor(box.Max.X()); x++ {
		for y := floor(box.Min.Y()); y <= floor(box.Max.Y()); y++ {
			for z := floor(box.Min.Z()); z <= floor(box.Max.Z()); z++ {
				b, err := reg.Get(src.GetBlock(x, y, z))
				if err != nil || len(b.Collision) == 0 {
					continue
				}
				origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
				for _, shape := range b.Collision {
					if box.Intersects(shape.Translate(origin)) {
						return true
					}
				}
			}
		}
	}
	return false
}

// GroundLevel returns the top of the highest collision shape in the column at
// (x, z), scanning down from fromY. ok is false when the column is empty.
func GroundLevel(x, z float32, fromY int, src BlockSource, reg *registry.Registry) (float32, bool) {
	bx, bz := floor(x), floor(z)
	for by := min(fromY, world.ChunkHeight-1); by >= 0; by-- {
		b, err := reg.Get(src.GetBlock(bx, by, bz))
		if err != nil || len(b.Collision) == 0 {
			continue
		}
		top := float32(0)
		for _, shape := range b.Collision {
			top = max(top, shape.Max.Y())
		}
		return float32(by) + top, true
	}
	return 0, false
}
