package pipeline

import (
	"context"

	"mini-voxel/internal/meshing"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/terrain"
	"mini-voxel/internal/world"
)

// driveNoise starts terrain generation for fresh chunks, nearest first.
func (w *World) driveNoise() {
	defer profiling.Track("pipeline.driveNoise")()
	started := 0
	for _, c := range w.graph.Active() {
		if started >= w.opts.NoisePerTick {
			return
		}
		if c.State() != world.StateNone || c.InFlight() {
			continue
		}
		coord := c.Coord()
		ok := w.submit(c, "noise", func(context.Context) (func(*world.Chunk) error, error) {
			voxels, heights := w.gen.Generate(coord)
			return func(c *world.Chunk) error {
				c.SetTerrain(voxels, heights)
				return c.Advance(world.TriggerNoiseGenerated)
			}, nil
		})
		if !ok {
			return
		}
		started++
	}
}

// driveDecoration places structures once a chunk and all four neighbors have
// terrain. Sampled columns are decorated concurrently against a snapshot; the
// recorded writes are replayed here as decoration writes.
func (w *World) driveDecoration() error {
	defer profiling.Track("pipeline.driveDecoration")()
	started := 0
	for _, c := range w.graph.Active() {
		if started >= w.opts.DecoratePerTick {
			return nil
		}
		if c.State() != world.StateNoiseGenerated || c.InFlight() || !c.NeighborsAtLeast(world.StateNoiseGenerated) {
			continue
		}
		vol := world.SnapshotVolume(c, w.decorator.Reach())
		cols := terrain.SampleColumns(vol, w.opts.Seed, w.opts.TreeChance, w.palette.Grass)
		if len(cols) == 0 {
			if err := w.finishDecoration(c); err != nil {
				return err
			}
			started++
			continue
		}
		ok := w.submit(c, "decoration", func(ctx context.Context) (func(*world.Chunk) error, error) {
			writes, err := terrain.Decorate(ctx, vol, cols, w.decorator)
			if err != nil {
				return nil, err
			}
			return func(c *world.Chunk) error {
				for _, wr := range writes {
					c.SetDecorationBlock(wr.X, wr.Y, wr.Z, wr.ID)
				}
				return w.finishDecoration(c)
			}, nil
		})
		if !ok {
			return nil
		}
		started++
	}
	return nil
}

// finishDecoration marks c decorated. Neighbors that were meshed while
// another chunk, or none, held c's coordinate are rebuilt against it.
func (w *World) finishDecoration(c *world.Chunk) error {
	if err := c.Advance(world.TriggerDecorated); err != nil {
		return err
	}
	for _, d := range world.Directions {
		if n := c.Neighbor(d); n != nil && n.State() >= world.StateMeshConstructing {
			n.RebuildMesh()
		}
	}
	return nil
}

// driveMesh snapshots decorated chunks whose four neighbors are decorated and
// builds their geometry in the background.
func (w *World) driveMesh() {
	defer profiling.Track("pipeline.driveMesh")()
	started := 0
	for _, c := range w.graph.Active() {
		if started >= w.opts.MeshPerTick {
			return
		}
		if c.State() != world.StateDecorated || c.InFlight() || !c.NeighborsAtLeast(world.StateDecorated) {
			continue
		}
		vol := world.SnapshotVolume(c, meshing.Margin)
		ok := w.submit(c, "mesh", func(context.Context) (func(*world.Chunk) error, error) {
			mesh, err := meshing.Build(vol, w.reg)
			if err != nil {
				return nil, err
			}
			return func(c *world.Chunk) error {
				for l := world.Layer(0); l < world.NumLayers; l++ {
					c.SetPending(l, mesh.Layers[l])
				}
				if err := c.Advance(world.TriggerMeshConstructed); err != nil {
					return err
				}
				w.batcher.Enqueue(c)
				return nil
			}, nil
		})
		if !ok {
			return
		}
		_ = c.Advance(world.TriggerMeshStart) // state checked above
		// the snapshot holds every edit made so far
		c.ClearRebuildRequest()
		started++
	}
}

// driveRebuild rolls edited chunks back so the mesh driver rebuilds them.
func (w *World) driveRebuild() {
	rolled := 0
	for _, c := range w.graph.Active() {
		if rolled >= w.opts.RebuildPerTick {
			return
		}
		if c.State() != world.StateDone || !c.IsAwaitingRebuild() || c.InFlight() {
			continue
		}
		if err := c.Advance(world.TriggerRollback); err == nil {
			rolled++
		}
	}
}
