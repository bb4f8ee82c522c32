package pipeline

import (
	"fmt"

	"mini-voxel/internal/world"
)

// GetBlock returns the block at world coordinates. Unloaded chunks read as air.
func (w *World) GetBlock(x, y, z int) world.BlockID {
	c, lx, lz := w.graph.ChunkAtWorld(x, z)
	if c == nil {
		return world.BlockAir
	}
	return c.GetBlockId(lx, y, lz)
}

// SetBlock edits the block at world coordinates. The owning chunk, and any
// neighbor sharing the edited border, are scheduled for a mesh rebuild.
func (w *World) SetBlock(x, y, z int, id world.BlockID) error {
	if _, err := w.reg.Get(id); err != nil {
		return err
	}
	c, lx, lz := w.graph.ChunkAtWorld(x, z)
	if c == nil || c.Voxels() == nil {
		return fmt.Errorf("set block (%d,%d,%d): %w", x, y, z, ErrNotLoaded)
	}
	c.SetBlock(lx, y, lz, id)
	return nil
}

// Stats is a point-in-time summary of the pipeline. ByState counts every
// active chunk, border rings included; Visible and Ready cover the view
// radius only.
type Stats struct {
	Active   int
	Visible  int
	Ready    int
	Pooled   int
	Slots    int
	InFlight int
	ByState  [world.StateDone + 1]int
	Batches  [world.NumLayers]int
	Queued   int
}

func (w *World) Stats() Stats {
	s := Stats{
		Active:   w.graph.ActiveCount(),
		Pooled:   w.graph.PoolSize(),
		Slots:    w.graph.Slots(),
		InFlight: w.inFlight,
		Queued:   w.batcher.Pending(),
	}
	for _, c := range w.graph.Active() {
		s.ByState[c.State()]++
		if w.InView(c) {
			s.Visible++
			if c.State() == world.StateDone && !c.IsAwaitingRebuild() {
				s.Ready++
			}
		}
	}
	for l := world.Layer(0); l < world.NumLayers; l++ {
		s.Batches[l] = len(w.batcher.Allocator().Batches(l))
	}
	return s
}

// Settled reports whether every chunk in view is Done and no work is pending.
func (s Stats) Settled() bool {
	return s.InFlight == 0 && s.Queued == 0 && s.Ready == s.Visible
}
