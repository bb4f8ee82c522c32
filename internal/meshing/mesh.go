package meshing

import (
	"fmt"

	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Tint colors selected by a fragment vertex's tint flag.
var (
	NeutralTint = mgl32.Vec3{1, 1, 1}
	FoliageTint = mgl32.Vec3{0.48, 0.74, 0.31}
)

// Margin is the number of neighbor columns Build needs around the chunk.
const Margin = 1

// Mesh holds a chunk's geometry split by layer, in chunk-local space.
type Mesh struct {
	Layers [world.NumLayers][]world.Vertex
}

// Empty reports whether no layer has geometry.
func (m *Mesh) Empty() bool {
	for _, vs := range m.Layers {
		if len(vs) > 0 {
			return false
		}
	}
	return true
}

// Build emits every visible face of the volume's center chunk. A face is
// hidden when the block across it is opaque, or when both blocks share a
// transparent cull-self id. The registry's water id goes to the transparent
// layer; everything else is opaque terrain.
func Build(vol *world.Volume, reg *registry.Registry) (*Mesh, error) {
	if vol.Margin < Margin {
		return nil, fmt.Errorf("mesh %v: volume margin %d, need %d", vol.Coord, vol.Margin, Margin)
	}
	mesh := &Mesh{}
	water := reg.Water()

	for x := 0; x < world.ChunkWidth; x++ {
		for z := 0; z < world.ChunkWidth; z++ {
			top := vol.SurfaceHeight(x, z)
			for y := 0; y <= top; y++ {
				id := vol.Get(x, y, z)
				if id == world.BlockAir {
					continue
				}
				b, err := reg.Get(id)
				if err != nil {
					return nil, fmt.Errorf("mesh %v at (%d,%d,%d): %w", vol.Coord, x, y, z, err)
				}
				layer := world.LayerOpaque
				if water != world.BlockAir && id == water {
					layer = world.LayerTransparent
				}
				for _, face := range world.Faces {
					dx, dy, dz := face.Offset()
					adj, err := reg.Get(vol.Get(x+dx, y+dy, z+dz))
					if err != nil {
						return nil, fmt.Errorf("mesh %v at (%d,%d,%d): %w", vol.Coord, x+dx, y+dy, z+dz, err)
					}
					if !faceVisible(b, adj) {
						continue
					}
					mesh.Layers[layer] = appendFragment(mesh.Layers[layer], b.Faces[face], x, y, z)
				}
			}
		}
	}
	return mesh, nil
}

func faceVisible(b, adj *registry.Block) bool {
	if adj.Opaque {
		return false
	}
	if adj.Transparent && adj.ID == b.ID && b.CullSelf {
		return false
	}
	return true
}

func appendFragment(dst []world.Vertex, f registry.Fragment, x, y, z int) []world.Vertex {
	off := mgl32.Vec3{float32(x), float32(y), float32(z)}
	for _, v := range f.Vertices {
		tint := NeutralTint
		if v.Tinted {
			tint = FoliageTint
		}
		dst = append(dst, world.Vertex{Pos: v.Pos.Add(off), UV: v.UV, Tint: tint})
	}
	return dst
}
