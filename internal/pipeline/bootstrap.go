package pipeline

import (
	"context"
	"fmt"
	"log"

	"mini-voxel/internal/config"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/render"
	"mini-voxel/internal/terrain"
)

// FromConfig assembles a World and everything it depends on from cfg. Batch
// buffers are created through newBuffer, so the caller decides whether
// geometry goes to the GPU or stays in memory.
func FromConfig(ctx context.Context, cfg config.Config, newBuffer render.BufferFactory) (*World, *registry.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	reg := registry.Default()
	if cfg.Assets != "" {
		var err error
		if reg, err = registry.FromModels(cfg.Assets); err != nil {
			return nil, nil, fmt.Errorf("load block models: %w", err)
		}
	}

	palette, err := terrain.PaletteFrom(reg)
	if err != nil {
		return nil, nil, err
	}
	oracle, err := terrain.NewOracle(cfg.Oracle, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	gen := terrain.NewGenerator(oracle, palette, cfg.SeaLevel)

	pool := NewWorkerPool(cfg.Workers, cfg.MaxInFlight)
	alloc := render.NewAllocator(cfg.MaxChunksPerBatch, newBuffer)
	batcher := render.NewDriver(alloc, cfg.BatchPerTick)

	log.Printf("pipeline: seed=%d oracle=%s workers=%d radius=%d", cfg.Seed, cfg.Oracle, cfg.Workers, cfg.ViewRadius)
	w := New(ctx, reg, gen, palette, terrain.NewTreeDecorator(palette), pool, batcher, OptionsFrom(cfg))
	return w, reg, nil
}
