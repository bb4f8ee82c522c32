package render

import (
	"fmt"

	"mini-voxel/internal/profiling"
	"mini-voxel/internal/world"
)

// Driver reconciles chunks with their batches from a FIFO queue. Only
// perTick chunks are handled per tick, bounding upload cost per frame.
type Driver struct {
	alloc   *Allocator
	perTick int

	queue  []*world.Chunk
	queued map[*world.Chunk]struct{}
}

func NewDriver(alloc *Allocator, perTick int) *Driver {
	return &Driver{
		alloc:   alloc,
		perTick: max(perTick, 1),
		queued:  make(map[*world.Chunk]struct{}),
	}
}

// Enqueue schedules c for reconciliation. A chunk already waiting is not
// queued twice.
func (d *Driver) Enqueue(c *world.Chunk) {
	if _, ok := d.queued[c]; ok {
		return
	}
	d.queued[c] = struct{}{}
	d.queue = append(d.queue, c)
}

// Pending returns the number of queued chunks.
func (d *Driver) Pending() int { return len(d.queue) }

// Allocator returns the allocator the driver places chunks with.
func (d *Driver) Allocator() *Allocator { return d.alloc }

// Tick reconciles up to perTick queued chunks and returns how many it handled.
func (d *Driver) Tick() (int, error) {
	defer profiling.Track("render.Driver.Tick")()
	n := 0
	for n < d.perTick && len(d.queue) > 0 {
		c := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		delete(d.queued, c)
		n++
		if err := d.reconcile(c); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (d *Driver) reconcile(c *world.Chunk) error {
	switch {
	case c.IsPooled() || c.State() < world.StateMeshConstructed:
		// regressed or recycled: drop whatever geometry it still owns
		for l := world.Layer(0); l < world.NumLayers; l++ {
			if err := d.alloc.Evict(c, l); err != nil {
				return err
			}
		}
		return nil
	case c.State() != world.StateMeshConstructed:
		return nil
	}

	for l := world.Layer(0); l < world.NumLayers; l++ {
		vs, ok := c.Pending(l)
		if !ok {
			continue
		}
		// no in-place resize: the old range goes before the new one lands
		if err := d.alloc.Evict(c, l); err != nil {
			return err
		}
		if len(vs) == 0 {
			c.ClearPending(l)
			continue
		}
		if _, err := d.alloc.Place(c, l); err != nil {
			return fmt.Errorf("place chunk %v (%s): %w", c.Coord(), l, err)
		}
	}
	return c.Advance(world.TriggerBatched)
}
