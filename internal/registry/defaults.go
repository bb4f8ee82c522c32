package registry

import (
	"fmt"

	"mini-voxel/pkg/blockmodel"
)

// Block names used by terrain generation and decoration.
const (
	Air     = "air"
	Bedrock = "bedrock"
	Stone   = "stone"
	Dirt    = "dirt"
	Grass   = "grass"
	Sand    = "sand"
	Water   = "water"
	Log     = "log"
	Leaves  = "leaves"
)

// Default builds the built-in block set from in-code cube models.
func Default() *Registry {
	all := func(tex string) map[string]string { return map[string]string{"all": tex} }
	r, err := New(Water,
		Definition{Name: Air},
		Definition{Name: Bedrock, Model: blockmodel.Cube(all("block/bedrock")), Solid: true},
		Definition{Name: Stone, Model: blockmodel.Cube(all("block/stone")), Solid: true},
		Definition{Name: Dirt, Model: blockmodel.Cube(all("block/dirt")), Solid: true},
		Definition{Name: Grass, Model: blockmodel.Cube(map[string]string{
			"up":   "block/grass_top",
			"down": "block/dirt",
			"all":  "block/grass_side",
		}, "up"), Solid: true},
		Definition{Name: Sand, Model: blockmodel.Cube(all("block/sand")), Solid: true},
		Definition{Name: Water, Model: blockmodel.Cube(all("block/water_still")), Transparent: true, CullSelf: true},
		Definition{Name: Log, Model: blockmodel.Cube(map[string]string{
			"up":   "block/log_oak_top",
			"down": "block/log_oak_top",
			"all":  "block/log_oak",
		}), Solid: true},
		Definition{Name: Leaves, Model: blockmodel.Cube(all("block/leaves_oak"), "all"), Transparent: true, Solid: true},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// FromModels builds the default block set with geometry loaded from JSON
// models under assetsPath. Each block reads models/block/<name>.json.
func FromModels(assetsPath string) (*Registry, error) {
	loader := blockmodel.NewLoader(assetsPath)
	base := Default()
	defs := make([]Definition, 0, base.Len())
	for _, b := range base.blocks {
		def := Definition{
			Name:        b.Name,
			Transparent: b.Transparent && b.Name != Air,
			CullSelf:    b.CullSelf,
			Solid:       len(b.Collision) > 0,
		}
		if b.Name != Air {
			m, err := loader.LoadModel(b.Name)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", b.Name, err)
			}
			def.Model = m
		}
		defs = append(defs, def)
	}
	return New(Water, defs...)
}
