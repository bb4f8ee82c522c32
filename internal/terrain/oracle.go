package terrain

import (
	"fmt"

	"github.com/aquilax/go-perlin"
)

// Oracle is a pure, deterministic height function over world columns. It is
// called concurrently from worker goroutines.
type Oracle interface {
	HeightAt(x, z int) float64
}

// ValueOracle layers octaves of value noise.
type ValueOracle struct {
	seed        int64
	scale       float64
	baseHeight  float64
	amp         float64
	octaves     int
	persistence float64
	lacunarity  float64
}

func NewValueOracle(seed int64) *ValueOracle {
	return &ValueOracle{
		seed:        seed,
		scale:       1.0 / 64.0,
		baseHeight:  48,
		amp:         40,
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

func (o *ValueOracle) HeightAt(x, z int) float64 {
	n := octaveNoise2D(float64(x)*o.scale, float64(z)*o.scale, o.seed, o.octaves, o.persistence, o.lacunarity)
	return o.baseHeight + n*o.amp
}

// PerlinOracle samples gradient noise from go-perlin.
type PerlinOracle struct {
	noise      *perlin.Perlin
	scale      float64
	baseHeight float64
	amp        float64
}

func NewPerlinOracle(seed int64) *PerlinOracle {
	return &PerlinOracle{
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		scale:      1.0 / 96.0,
		baseHeight: 64,
		amp:        28,
	}
}

func (o *PerlinOracle) HeightAt(x, z int) float64 {
	// Noise2D is roughly [-1,1]
	return o.baseHeight + o.noise.Noise2D(float64(x)*o.scale, float64(z)*o.scale)*o.amp
}

// FlatOracle returns the same height everywhere.
type FlatOracle float64

func (o FlatOracle) HeightAt(x, z int) float64 { return float64(o) }

// NewOracle selects an oracle by name: "value" or "perlin".
func NewOracle(kind string, seed int64) (Oracle, error) {
	switch kind {
	case "", "value":
		return NewValueOracle(seed), nil
	case "perlin":
		return NewPerlinOracle(seed), nil
	default:
		return nil, fmt.Errorf("unknown height oracle %q", kind)
	}
}
