package world

import "math"

// ChunkCoord is a chunk's position on the XZ grid, in chunk units.
type ChunkCoord struct {
	X, Z int
}

// Direction names one of the four horizontal neighbors of a chunk.
// North is +Z, South is -Z, East is +X and West is -X.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists the four neighbor directions in a fixed order.
var Directions = [4]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the direction pointing back across the shared border.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// Delta returns the grid step for the direction.
func (d Direction) Delta() (dx, dz int) {
	switch d {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	default:
		return -1, 0
	}
}

// Step returns the coordinate of the neighbor in direction d.
func (c ChunkCoord) Step(d Direction) ChunkCoord {
	dx, dz := d.Delta()
	return ChunkCoord{X: c.X + dx, Z: c.Z + dz}
}

// Origin returns the world-space block position of the chunk's (0,0,0) corner.
func (c ChunkCoord) Origin() (x, z int) {
	return c.X * ChunkWidth, c.Z * ChunkWidth
}

// CoordAt returns the chunk containing world block column (x, z).
func CoordAt(x, z int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, ChunkWidth), Z: floorDiv(z, ChunkWidth)}
}

// CoordAtPosition rounds a world-space position down to its chunk.
func CoordAtPosition(x, z float32) ChunkCoord {
	return CoordAt(int(math.Floor(float64(x))), int(math.Floor(float64(z))))
}

// LocalPos is a block position inside a chunk.
type LocalPos struct {
	X, Y, Z int
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// ToLocal splits a world block column into its chunk and local x/z.
func ToLocal(x, z int) (ChunkCoord, int, int) {
	return CoordAt(x, z), mod(x, ChunkWidth), mod(z, ChunkWidth)
}
