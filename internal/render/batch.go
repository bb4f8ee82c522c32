package render

import (
	"errors"
	"fmt"

	"mini-voxel/internal/profiling"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrBatchFull is returned by AddChunk on a batch at capacity.
	ErrBatchFull = errors.New("render batch is full")
	// ErrNotMember is returned by RemoveChunk for chunks the batch does not hold.
	ErrNotMember = errors.New("chunk is not a member of the batch")
	// ErrNoPendingVertices is returned by AddChunk when the chunk has no
	// geometry waiting for the batch's layer.
	ErrNoPendingVertices = errors.New("chunk has no pending vertices")
)

// DrawRange is one member's slice of the vertex array, in vertices.
type DrawRange struct {
	First int
	Count int
}

// DrawCommand matches the std430 layout of DrawArraysIndirectCommand.
type DrawCommand struct {
	Count         uint32
	InstanceCount uint32
	First         uint32
	BaseInstance  uint32
}

// Batch packs the geometry of up to capacity chunks of one layer into a
// single vertex array. ranges, transforms, bounds and members are parallel
// slices indexed by member slot.
type Batch struct {
	id       int
	layer    world.Layer
	capacity int
	buffer   Buffer

	vertices   []float32
	ranges     []DrawRange
	transforms []mgl32.Mat4
	bounds     []world.AABB
	members    []*world.Chunk
}

func newBatch(id int, layer world.Layer, capacity int, buffer Buffer) *Batch {
	return &Batch{
		id:       id,
		layer:    layer,
		capacity: capacity,
		buffer:   buffer,
	}
}

func (b *Batch) ID() int             { return b.id }
func (b *Batch) Layer() world.Layer  { return b.layer }
func (b *Batch) Capacity() int       { return b.capacity }
func (b *Batch) Len() int            { return len(b.members) }
func (b *Batch) Full() bool          { return len(b.members) >= b.capacity }
func (b *Batch) VertexCount() int    { return len(b.vertices) / world.VertexStride }
func (b *Batch) Vertices() []float32 { return b.vertices }
func (b *Batch) Ranges() []DrawRange { return b.ranges }

func (b *Batch) Transforms() []mgl32.Mat4 { return b.transforms }
func (b *Batch) Members() []*world.Chunk  { return b.members }

// Bounds returns each member's world bounds as they were when its geometry
// was added. A member waiting for eviction keeps the bounds of that geometry.
func (b *Batch) Bounds() []world.AABB { return b.bounds }

// Buffer returns the backing buffer the batch uploads into.
func (b *Batch) Buffer() Buffer { return b.buffer }

// AddChunk appends the chunk's pending geometry for the batch's layer,
// records its membership and consumes the pending list.
func (b *Batch) AddChunk(c *world.Chunk) error {
	if b.Full() {
		return fmt.Errorf("batch %d: %w", b.id, ErrBatchFull)
	}
	vs, ok := c.Pending(b.layer)
	if !ok || len(vs) == 0 {
		return fmt.Errorf("batch %d, chunk %v: %w", b.id, c.Coord(), ErrNoPendingVertices)
	}
	if slot := c.Slot(b.layer); slot.Batch != 0 {
		return fmt.Errorf("batch %d: chunk %v already belongs to batch %d", b.id, c.Coord(), slot.Batch)
	}

	first := b.VertexCount()
	b.vertices = world.AppendFloats(b.vertices, vs)
	b.ranges = append(b.ranges, DrawRange{First: first, Count: len(vs)})
	b.transforms = append(b.transforms, c.Transform())
	b.bounds = append(b.bounds, c.BoundingBox())
	b.members = append(b.members, c)
	c.SetSlot(b.layer, world.BatchSlot{Batch: b.id, Index: len(b.members) - 1})
	c.ClearPending(b.layer)
	return b.upload()
}

// RemoveChunk cuts the chunk's range out of the vertex array and shifts every
// later member down. The order of the remaining members is unchanged.
func (b *Batch) RemoveChunk(c *world.Chunk) error {
	slot := c.Slot(b.layer)
	i := slot.Index
	if slot.Batch != b.id || i < 0 || i >= len(b.members) || b.members[i] != c {
		return fmt.Errorf("batch %d, chunk %v: %w", b.id, c.Coord(), ErrNotMember)
	}

	r := b.ranges[i]
	start, end := r.First*world.VertexStride, (r.First+r.Count)*world.VertexStride
	b.vertices = append(b.vertices[:start], b.vertices[end:]...)

	for j := i + 1; j < len(b.members); j++ {
		b.ranges[j].First -= r.Count
		b.members[j].SetSlot(b.layer, world.BatchSlot{Batch: b.id, Index: j - 1})
	}
	b.ranges = append(b.ranges[:i], b.ranges[i+1:]...)
	b.transforms = append(b.transforms[:i], b.transforms[i+1:]...)
	b.bounds = append(b.bounds[:i], b.bounds[i+1:]...)
	last := len(b.members) - 1
	copy(b.members[i:], b.members[i+1:])
	b.members[last] = nil
	b.members = b.members[:last]
	c.SetSlot(b.layer, world.BatchSlot{})
	return b.upload()
}

// IndirectCommands returns one draw command per member. BaseInstance indexes
// the member's transform.
func (b *Batch) IndirectCommands() []DrawCommand {
	cmds := make([]DrawCommand, len(b.ranges))
	for i, r := range b.ranges {
		cmds[i] = DrawCommand{
			Count:         uint32(r.Count),
			InstanceCount: 1,
			First:         uint32(r.First),
			BaseInstance:  uint32(i),
		}
	}
	return cmds
}

func (b *Batch) upload() error {
	if err := b.buffer.Upload(b.vertices); err != nil {
		return fmt.Errorf("upload batch %d: %w", b.id, err)
	}
	profiling.BatchUploads.WithLabelValues(b.layer.String()).Inc()
	return nil
}

func (b *Batch) release() {
	b.buffer.Release()
}
