package render

import (
	"fmt"
	"log"

	"mini-voxel/internal/profiling"
	"mini-voxel/internal/world"
)

// Allocator owns every batch, grouped into one family per layer.
type Allocator struct {
	capacity  int
	newBuffer BufferFactory

	nextID   int
	batches  map[int]*Batch
	families [world.NumLayers][]*Batch
}

// NewAllocator creates an allocator whose batches hold up to capacity chunks.
func NewAllocator(capacity int, newBuffer BufferFactory) *Allocator {
	if newBuffer == nil {
		newBuffer = NewMemoryBuffer
	}
	return &Allocator{
		capacity:  max(capacity, 1),
		newBuffer: newBuffer,
		batches:   make(map[int]*Batch),
	}
}

// Place adds the chunk's pending geometry for layer to the first batch in the
// family with room, creating a batch when all are full.
func (a *Allocator) Place(c *world.Chunk, layer world.Layer) (*Batch, error) {
	var target *Batch
	for _, b := range a.families[layer] {
		if !b.Full() {
			target = b
			break
		}
	}
	if target == nil {
		a.nextID++
		target = newBatch(a.nextID, layer, a.capacity, a.newBuffer())
		a.batches[target.id] = target
		a.families[layer] = append(a.families[layer], target)
		profiling.Batches.WithLabelValues(layer.String()).Set(float64(len(a.families[layer])))
		log.Printf("render: batch %d created (%s, %d in family)", target.id, layer, len(a.families[layer]))
	}
	if err := target.AddChunk(c); err != nil {
		return nil, err
	}
	return target, nil
}

// Evict removes the chunk from its batch in layer, if any. Batches left empty
// are released.
func (a *Allocator) Evict(c *world.Chunk, layer world.Layer) error {
	slot := c.Slot(layer)
	if slot.Batch == 0 {
		return nil
	}
	b, ok := a.batches[slot.Batch]
	if !ok {
		return fmt.Errorf("chunk %v references unknown batch %d: %w", c.Coord(), slot.Batch, ErrNotMember)
	}
	if err := b.RemoveChunk(c); err != nil {
		return err
	}
	if b.Len() == 0 {
		a.drop(b)
	}
	return nil
}

func (a *Allocator) drop(b *Batch) {
	delete(a.batches, b.id)
	fam := a.families[b.layer]
	for i, x := range fam {
		if x == b {
			a.families[b.layer] = append(fam[:i], fam[i+1:]...)
			break
		}
	}
	b.release()
	profiling.Batches.WithLabelValues(b.layer.String()).Set(float64(len(a.families[b.layer])))
}

// Batch returns the batch with id, or nil.
func (a *Allocator) Batch(id int) *Batch { return a.batches[id] }

// Batches returns the live batches of a layer in creation order.
func (a *Allocator) Batches(layer world.Layer) []*Batch { return a.families[layer] }
