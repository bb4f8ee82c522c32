package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BlockID is a registry index. Zero is air.
type BlockID uint16

const BlockAir BlockID = 0

// BlockFace identifies a face of a block
type BlockFace int

const (
	FaceNorth BlockFace = iota
	FaceSouth
	FaceEast
	FaceWest
	FaceTop
	FaceBottom
)

// Faces lists all six faces in mesh emission order.
var Faces = [6]BlockFace{FaceNorth, FaceSouth, FaceEast, FaceWest, FaceTop, FaceBottom}

func (f BlockFace) String() string {
	switch f {
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceEast:
		return "east"
	case FaceWest:
		return "west"
	case FaceTop:
		return "up"
	case FaceBottom:
		return "down"
	default:
		return "unknown"
	}
}

// Offset returns the unit step from a block to the block across this face.
func (f BlockFace) Offset() (dx, dy, dz int) {
	switch f {
	case FaceNorth:
		return 0, 0, 1
	case FaceSouth:
		return 0, 0, -1
	case FaceEast:
		return 1, 0, 0
	case FaceWest:
		return -1, 0, 0
	case FaceTop:
		return 0, 1, 0
	default:
		return 0, -1, 0
	}
}

// Normal returns the outward face normal.
func (f BlockFace) Normal() mgl32.Vec3 {
	dx, dy, dz := f.Offset()
	return mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Empty reports whether the box encloses no volume.
func (b AABB) Empty() bool {
	return b.Max.X() <= b.Min.X() || b.Max.Y() <= b.Min.Y() || b.Max.Z() <= b.Min.Z()
}

// Contains reports whether p lies inside the box (max exclusive).
func (b AABB) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() < b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() < b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() < b.Max.Z()
}

// Intersects reports whether the two boxes overlap with positive volume.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X() < o.Max.X() && b.Max.X() > o.Min.X() &&
		b.Min.Y() < o.Max.Y() && b.Max.Y() > o.Min.Y() &&
		b.Min.Z() < o.Max.Z() && b.Max.Z() > o.Min.Z()
}

// Translate returns the box moved by d.
func (b AABB) Translate(d mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}
