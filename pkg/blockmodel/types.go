package blockmodel

// Model is a block model in the JSON layout used by resource packs: a set of
// axis-aligned elements in 0..16 model units, each with up to six faces.
type Model struct {
	Parent           string            `json:"parent"`
	AmbientOcclusion *bool             `json:"ambientocclusion"`
	Textures         map[string]string `json:"textures"`
	Elements         []Element         `json:"elements"`
}

type Element struct {
	From     [3]float32      `json:"from"`
	To       [3]float32      `json:"to"`
	Rotation *Rotation       `json:"rotation"`
	Shade    *bool           `json:"shade"`
	Faces    map[string]Face `json:"faces"`
}

// Rotation is parsed but not applied; voxel terrain only uses axis-aligned
// elements.
type Rotation struct {
	Origin  [3]float32 `json:"origin"`
	Angle   float32    `json:"angle"`
	Axis    string     `json:"axis"`
	Rescale bool       `json:"rescale"`
}

type Face struct {
	UV        [4]float32 `json:"uv"`
	Texture   string     `json:"texture"`
	CullFace  string     `json:"cullface"`
	Rotation  int        `json:"rotation"`
	TintIndex *int       `json:"tintindex"`
}

// Tinted reports whether the face takes the biome tint.
func (f Face) Tinted() bool { return f.TintIndex != nil }

// cloneElements deep-copies the element slice so children never share face maps with
// a cached parent.
func cloneElements(src []Element) []Element {
	if src == nil {
		return nil
	}
	out := make([]Element, len(src))
	for i, e := range src {
		out[i] = e
		out[i].Faces = make(map[string]Face, len(e.Faces))
		for k, f := range e.Faces {
			out[i].Faces[k] = f
		}
	}
	return out
}
