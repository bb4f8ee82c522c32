package pipeline

import (
	"context"
	"errors"
	"fmt"

	"mini-voxel/internal/config"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/render"
	"mini-voxel/internal/terrain"
	"mini-voxel/internal/world"
)

// ErrNotLoaded is returned for edits outside the active set.
var ErrNotLoaded = errors.New("chunk not loaded")

// BorderRings is how many rings are streamed beyond the view radius. The
// outer ring only gets terrain, so the next one in can decorate, and that one
// only gets decorated, so every chunk in view can be meshed.
const BorderRings = 2

// Options bounds how much work the stage drivers start per tick.
type Options struct {
	Seed        int64
	TreeChance  float64
	MaxInFlight int

	NoisePerTick    int
	DecoratePerTick int
	MeshPerTick     int
	RebuildPerTick  int
}

// OptionsFrom copies the pipeline settings out of cfg.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Seed:            cfg.Seed,
		TreeChance:      cfg.TreeChance,
		MaxInFlight:     cfg.MaxInFlight,
		NoisePerTick:    cfg.NoisePerTick,
		DecoratePerTick: cfg.DecoratePerTick,
		MeshPerTick:     cfg.MeshPerTick,
		RebuildPerTick:  cfg.RebuildPerTick,
	}
}

// completion carries a finished job back to the tick thread. apply runs only
// if the chunk still has the generation the job was started for.
type completion struct {
	chunk      *world.Chunk
	generation uint64
	stage      string
	apply      func(c *world.Chunk) error
	err        error
}

// World drives chunks through noise, decoration, meshing and batching. All
// methods must be called from one goroutine, the tick thread.
type World struct {
	ctx       context.Context
	graph     *world.Graph
	reg       *registry.Registry
	gen       *terrain.Generator
	palette   terrain.Palette
	decorator terrain.Decorator
	exec      Executor
	batcher   *render.Driver
	opts      Options

	completions chan completion
	inFlight    int
	radius      int

	onTransition func(c *world.Chunk, from, to world.State)
}

// New wires a pipeline. The registry is shared read-only with every job.
func New(ctx context.Context, reg *registry.Registry, gen *terrain.Generator, palette terrain.Palette,
	decorator terrain.Decorator, exec Executor, batcher *render.Driver, opts Options) *World {
	opts.MaxInFlight = max(opts.MaxInFlight, 1)
	w := &World{
		ctx:         ctx,
		graph:       world.NewGraph(),
		reg:         reg,
		gen:         gen,
		palette:     palette,
		decorator:   decorator,
		exec:        exec,
		batcher:     batcher,
		opts:        opts,
		completions: make(chan completion, opts.MaxInFlight),
	}
	w.graph.SetObserver(func(c *world.Chunk, from, to world.State) {
		profiling.StageTransitions.WithLabelValues(from.String(), to.String()).Inc()
		if w.onTransition != nil {
			w.onTransition(c, from, to)
		}
	})
	return w
}

// OnTransition installs a hook called on every chunk state change.
func (w *World) OnTransition(fn func(c *world.Chunk, from, to world.State)) {
	w.onTransition = fn
}

// Graph exposes the neighbor graph for lookups.
func (w *World) Graph() *world.Graph { return w.graph }

// Batcher exposes the batch driver for rendering.
func (w *World) Batcher() *render.Driver { return w.batcher }

// Tick runs one pass: streaming, completion drain, then each stage driver and
// the batch driver in a fixed order. radius is the view radius; BorderRings
// more are streamed around it. Any returned error is fatal, including the
// cancellation of the context the World was created with.
func (w *World) Tick(x, z float32, radius int) error {
	defer profiling.Track("pipeline.World.Tick")()
	if err := w.ctx.Err(); err != nil {
		return err
	}

	w.radius = max(radius, 0)
	res := w.graph.Stream(x, z, w.radius+BorderRings)
	for _, c := range res.Deactivated {
		if hasBatch(c) {
			w.batcher.Enqueue(c)
		}
	}

	if err := w.drain(); err != nil {
		return err
	}
	w.driveNoise()
	if err := w.driveDecoration(); err != nil {
		return err
	}
	w.driveMesh()
	w.driveRebuild()
	if _, err := w.batcher.Tick(); err != nil {
		return fmt.Errorf("batch driver: %w", err)
	}

	profiling.ActiveChunks.Set(float64(w.graph.ActiveCount()))
	profiling.PooledChunks.Set(float64(w.graph.PoolSize()))
	profiling.JobsInFlight.Set(float64(w.inFlight))
	return nil
}

// Close stops the executor. Results still in flight are discarded.
func (w *World) Close() {
	w.exec.Shutdown()
}

// InView reports whether c lies within the view radius of the last Tick.
func (w *World) InView(c *world.Chunk) bool {
	center, coord := w.graph.Center(), c.Coord()
	return !c.IsPooled() && abs(coord.X-center.X) <= w.radius && abs(coord.Z-center.Z) <= w.radius
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func hasBatch(c *world.Chunk) bool {
	for l := world.Layer(0); l < world.NumLayers; l++ {
		if c.Slot(l).Batch != 0 {
			return true
		}
	}
	return false
}

// submit hands work to the executor. work runs off the tick thread and
// returns the function the tick thread applies once the job is drained.
func (w *World) submit(c *world.Chunk, stage string, work func(ctx context.Context) (func(*world.Chunk) error, error)) bool {
	if w.inFlight >= w.opts.MaxInFlight || w.ctx.Err() != nil {
		return false
	}
	gen := c.Generation()
	ok := w.exec.Submit(func(ctx context.Context) {
		apply, err := work(ctx)
		w.completions <- completion{chunk: c, generation: gen, stage: stage, apply: apply, err: err}
	})
	if !ok {
		return false
	}
	c.SetInFlight(true)
	w.inFlight++
	return true
}

// drain applies every finished job. Results for recycled chunks are dropped.
func (w *World) drain() error {
	defer profiling.Track("pipeline.World.drain")()
	for {
		select {
		case done := <-w.completions:
			w.inFlight--
			if done.chunk.Generation() != done.generation {
				profiling.StaleCompletions.Inc()
				continue
			}
			done.chunk.SetInFlight(false)
			if done.err != nil {
				return fmt.Errorf("%s stage, chunk %v: %w", done.stage, done.chunk.Coord(), done.err)
			}
			if err := done.apply(done.chunk); err != nil {
				return fmt.Errorf("%s stage, chunk %v: %w", done.stage, done.chunk.Coord(), err)
			}
		default:
			return nil
		}
	}
}
