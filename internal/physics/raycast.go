package physics

import (
	"math"

	"mini-voxel/internal/profiling"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0
)

// BlockSource answers block queries in world coordinates.
type BlockSource interface {
	GetBlock(x, y, z int) world.BlockID
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      [3]int
	AdjacentPosition [3]int
	Face             world.BlockFace
	Distance         float32
	Hit              bool
}

// Raycast walks the voxel grid along direction and returns the first block
// whose collision shape the ray enters between minDist and maxDist. Blocks
// without collision shapes, such as air and water, are passed through.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, src BlockSource, reg *registry.Registry) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	var result RaycastResult
	if direction.Len() == 0 {
		return result
	}
	dir := direction.Normalize()
	inf := float32(math.Inf(1))

	cell := [3]int{floor(start.X()), floor(start.Y()), floor(start.Z())}
	var step [3]int
	var tMax, tDelta [3]float32
	for i := 0; i < 3; i++ {
		switch {
		case dir[i] > 0:
			step[i] = 1
			tDelta[i] = 1 / dir[i]
			tMax[i] = (float32(cell[i]+1) - start[i]) / dir[i]
		case dir[i] < 0:
			step[i] = -1
			tDelta[i] = -1 / dir[i]
			tMax[i] = (start[i] - float32(cell[i])) / -dir[i]
		default:
			tDelta[i] = inf
			tMax[i] = inf
		}
	}

	prev := cell
	face := world.FaceTop
	for {
		if dist, ok := enterDistance(start, dir, cell, src, reg); ok && dist >= minDist && dist <= maxDist {
			result.HitPosition = cell
			result.AdjacentPosition = prev
			result.Face = face
			result.Distance = dist
			result.Hit = true
			return result
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > maxDist {
			return result
		}
		prev = cell
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
		face = entryFace(axis, step[axis])
	}
}

// enterDistance returns how far along the ray the first collision box of the
// block at cell is entered.
func enterDistance(start, dir mgl32.Vec3, cell [3]int, src BlockSource, reg *registry.Registry) (float32, bool) {
	b, err := reg.Get(src.GetBlock(cell[0], cell[1], cell[2]))
	if err != nil || len(b.Collision) == 0 {
		return 0, false
	}
	origin := mgl32.Vec3{float32(cell[0]), float32(cell[1]), float32(cell[2])}
	best, hit := float32(math.Inf(1)), false
	for _, box := range b.Collision {
		if t, ok := rayBox(start, dir, box.Translate(origin)); ok && t < best {
			best, hit = t, true
		}
	}
	return best, hit
}

// rayBox is the slab test. A ray starting inside the box enters at 0.
func rayBox(start, dir mgl32.Vec3, box world.AABB) (float32, bool) {
	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if start[i] < box.Min[i] || start[i] >= box.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[i] - start[i]) / dir[i]
		t2 := (box.Max[i] - start[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tNear = max(tNear, t1)
		tFar = min(tFar, t2)
	}
	if tNear > tFar || tFar < 0 {
		return 0, false
	}
	return max(tNear, 0), true
}

// entryFace is the face of the new cell the ray crossed into.
func entryFace(axis, step int) world.BlockFace {
	switch axis {
	case 0:
		if step > 0 {
			return world.FaceWest
		}
		return world.FaceEast
	case 1:
		if step > 0 {
			return world.FaceBottom
		}
		return world.FaceTop
	default:
		if step > 0 {
			return world.FaceSouth
		}
		return world.FaceNorth
	}
}

func floor(v float32) int {
	return int(math.Floor(float64(v)))
}
