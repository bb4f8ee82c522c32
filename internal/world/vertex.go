package world

import "github.com/go-gl/mathgl/mgl32"

// VertexStride is number of float32 per vertex (pos.xyz + uv + tint.rgb)
const VertexStride = 8

// Vertex is one corner of an emitted face, in chunk-local space.
type Vertex struct {
	Pos  mgl32.Vec3
	UV   mgl32.Vec2
	Tint mgl32.Vec3
}

// AppendFloats appends the interleaved float layout of vs to dst.
func AppendFloats(dst []float32, vs []Vertex) []float32 {
	for _, v := range vs {
		dst = append(dst,
			v.Pos[0], v.Pos[1], v.Pos[2],
			v.UV[0], v.UV[1],
			v.Tint[0], v.Tint[1], v.Tint[2],
		)
	}
	return dst
}

// Layer separates opaque terrain geometry from transparent water geometry.
// Each layer is batched independently.
type Layer int

const (
	LayerOpaque Layer = iota
	LayerTransparent
	NumLayers
)

func (l Layer) String() string {
	if l == LayerTransparent {
		return "transparent"
	}
	return "opaque"
}

// BatchSlot records which render batch holds a chunk's geometry for one layer
// and the chunk's index inside it. Batch 0 means no membership.
type BatchSlot struct {
	Batch int
	Index int
}
