package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that points at a config file.
const EnvPath = "VOXEL_CONFIG"

// Config holds world, pipeline and batching settings.
type Config struct {
	Seed       int64  `yaml:"seed"`
	ViewRadius int    `yaml:"view_radius"`
	SeaLevel   int    `yaml:"sea_level"`
	Oracle     string `yaml:"oracle"`
	Assets     string `yaml:"assets"`

	Workers     int     `yaml:"workers"`
	MaxInFlight int     `yaml:"max_in_flight"`
	TreeChance  float64 `yaml:"tree_chance"`

	NoisePerTick    int `yaml:"noise_per_tick"`
	DecoratePerTick int `yaml:"decorate_per_tick"`
	MeshPerTick     int `yaml:"mesh_per_tick"`
	RebuildPerTick  int `yaml:"rebuild_per_tick"`
	BatchPerTick    int `yaml:"batch_per_tick"`

	MaxChunksPerBatch int `yaml:"max_chunks_per_batch"`

	// TickRate caps ticks (and viewer frames) per second; 0 is unlimited.
	TickRate    int    `yaml:"tick_rate"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Seed:              1337,
		ViewRadius:        8,
		SeaLevel:          63,
		Oracle:            "value",
		Workers:           4,
		MaxInFlight:       64,
		TreeChance:        0.02,
		NoisePerTick:      16,
		DecoratePerTick:   8,
		MeshPerTick:       8,
		RebuildPerTick:    1,
		BatchPerTick:      1,
		MaxChunksPerBatch: 64,
		TickRate:          60,
		MetricsAddr:       ":2112",
	}
}

// Load reads path, or the file named by VOXEL_CONFIG when path is empty, over
// the defaults. With neither set the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("workers", c.Workers)
	positive("max_in_flight", c.MaxInFlight)
	positive("noise_per_tick", c.NoisePerTick)
	positive("decorate_per_tick", c.DecoratePerTick)
	positive("mesh_per_tick", c.MeshPerTick)
	positive("rebuild_per_tick", c.RebuildPerTick)
	positive("batch_per_tick", c.BatchPerTick)
	positive("max_chunks_per_batch", c.MaxChunksPerBatch)
	if c.TickRate < 0 {
		errs = append(errs, fmt.Errorf("tick_rate must not be negative, got %d", c.TickRate))
	}
	if c.ViewRadius < MinRenderDistance || c.ViewRadius > MaxRenderDistance {
		errs = append(errs, fmt.Errorf("view_radius must be in [%d,%d], got %d",
			MinRenderDistance, MaxRenderDistance, c.ViewRadius))
	}
	if c.SeaLevel < 0 || c.SeaLevel >= 255 {
		errs = append(errs, fmt.Errorf("sea_level must be in [0,255), got %d", c.SeaLevel))
	}
	if c.TreeChance < 0 || c.TreeChance > 1 {
		errs = append(errs, fmt.Errorf("tree_chance must be in [0,1], got %g", c.TreeChance))
	}
	switch c.Oracle {
	case "value", "perlin":
	default:
		errs = append(errs, fmt.Errorf("oracle must be value or perlin, got %q", c.Oracle))
	}
	return errors.Join(errs...)
}

// Render distance bounds, shared by Validate and SetRenderDistance.
const (
	MinRenderDistance = 1
	MaxRenderDistance = 32
)

// RenderSettings holds the live view radius, which the viewer may change
// while the world runs.
type RenderSettings struct {
	mu             sync.RWMutex
	renderDistance int // in chunks
}

var globalRenderSettings = &RenderSettings{
	renderDistance: Default().ViewRadius,
}

// GetRenderDistance returns the current render distance in chunks
func GetRenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in chunks, clamped to
// [MinRenderDistance, MaxRenderDistance].
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.renderDistance = min(max(distance, MinRenderDistance), MaxRenderDistance)
}
