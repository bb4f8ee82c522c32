package blockmodel

import "github.com/go-gl/mathgl/mgl32"

// Face names in the order the mesher walks them.
var FaceNames = [6]string{"north", "south", "east", "west", "up", "down"}

// Vertex is one corner of a face triangle in unit block space (0..1).
type Vertex struct {
	Pos    mgl32.Vec3
	UV     mgl32.Vec2
	Tinted bool
}

// corners picks from (0) or to (1) per axis, wound counter-clockwise when
// seen from outside. North faces +Z.
var corners = map[string][4][3]uint8{
	"north": {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	"south": {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	"east":  {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	"west":  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	"up":    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	"down":  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
}

// FaceVertices flattens every element face named face into a triangle list.
// Unknown face names yield nil.
func (m *Model) FaceVertices(face string) []Vertex {
	pick, ok := corners[face]
	if !ok {
		return nil
	}
	var out []Vertex
	for _, e := range m.Elements {
		f, ok := e.Faces[face]
		if !ok {
			continue
		}
		var quad [4]Vertex
		uv := faceUV(f)
		for i, c := range pick {
			var p mgl32.Vec3
			for axis := 0; axis < 3; axis++ {
				if c[axis] == 0 {
					p[axis] = e.From[axis] / 16
				} else {
					p[axis] = e.To[axis] / 16
				}
			}
			quad[i] = Vertex{Pos: p, UV: uv[i], Tinted: f.Tinted()}
		}
		out = append(out, quad[0], quad[1], quad[2], quad[2], quad[3], quad[0])
	}
	return out
}

// Boxes returns the element bounds in unit block space.
func (m *Model) Boxes() [][2]mgl32.Vec3 {
	out := make([][2]mgl32.Vec3, 0, len(m.Elements))
	for _, e := range m.Elements {
		out = append(out, [2]mgl32.Vec3{
			{e.From[0] / 16, e.From[1] / 16, e.From[2] / 16},
			{e.To[0] / 16, e.To[1] / 16, e.To[2] / 16},
		})
	}
	return out
}

func faceUV(f Face) [4]mgl32.Vec2 {
	uv := f.UV
	if uv == [4]float32{} {
		uv = [4]float32{0, 0, 16, 16}
	}
	u0, v0, u1, v1 := uv[0]/16, uv[1]/16, uv[2]/16, uv[3]/16
	return [4]mgl32.Vec2{{u0, v1}, {u1, v1}, {u1, v0}, {u0, v0}}
}

// Cube builds a full-block model. textures maps face names to texture names;
// the "all" key fills any face not listed. Faces named in tinted take the
// biome tint.
func Cube(textures map[string]string, tinted ...string) *Model {
	tint := 0
	faces := make(map[string]Face, 6)
	for _, name := range FaceNames {
		tex, ok := textures[name]
		if !ok {
			tex = textures["all"]
		}
		f := Face{Texture: tex, CullFace: name}
		for _, t := range tinted {
			if t == name || t == "all" {
				f.TintIndex = &tint
			}
		}
		faces[name] = f
	}
	return &Model{
		Textures: textures,
		Elements: []Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{16, 16, 16},
			Faces: faces,
		}},
	}
}
