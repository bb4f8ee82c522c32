package render

import (
	"testing"

	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geometry returns n vertices tagged with the given marker.
func geometry(marker float32, n int) []world.Vertex {
	vs := make([]world.Vertex, n)
	for i := range vs {
		vs[i] = world.Vertex{Pos: mgl32.Vec3{marker, float32(i), 0}, Tint: mgl32.Vec3{1, 1, 1}}
	}
	return vs
}

// meshed returns a detached chunk at MeshConstructed with pending geometry.
func meshed(t *testing.T, x int, opaque, water int) *world.Chunk {
	t.Helper()
	c := world.NewChunk(world.ChunkCoord{X: x})
	for _, tr := range []world.Trigger{
		world.TriggerNoiseGenerated, world.TriggerDecorated,
		world.TriggerMeshStart, world.TriggerMeshConstructed,
	} {
		require.NoError(t, c.Advance(tr))
	}
	c.SetPending(world.LayerOpaque, geometry(float32(x), opaque))
	c.SetPending(world.LayerTransparent, geometry(float32(x), water))
	return c
}

func TestBatchRoundTrip(t *testing.T) {
	a, b, c := meshed(t, 1, 6, 0), meshed(t, 2, 12, 0), meshed(t, 3, 18, 0)
	batch := newBatch(1, world.LayerOpaque, 8, NewMemoryBuffer())
	for _, ch := range []*world.Chunk{a, b, c} {
		require.NoError(t, batch.AddChunk(ch))
	}
	require.NoError(t, batch.RemoveChunk(b))

	a2, c2 := meshed(t, 1, 6, 0), meshed(t, 3, 18, 0)
	want := newBatch(2, world.LayerOpaque, 8, NewMemoryBuffer())
	require.NoError(t, want.AddChunk(a2))
	require.NoError(t, want.AddChunk(c2))

	assert.Equal(t, want.Vertices(), batch.Vertices())
	assert.Equal(t, want.Ranges(), batch.Ranges())
	assert.Equal(t, want.Transforms(), batch.Transforms())
	assert.Equal(t, []*world.Chunk{a, c}, batch.Members())

	assert.Equal(t, world.BatchSlot{}, b.Slot(world.LayerOpaque))
	assert.Equal(t, world.BatchSlot{Batch: 1, Index: 1}, c.Slot(world.LayerOpaque))
	assert.Equal(t, batch.Vertices(), batch.buffer.(*MemoryBuffer).Data, "buffer mirrors the array")
}

func TestBatchRangesStayContiguous(t *testing.T) {
	batch := newBatch(1, world.LayerOpaque, 8, NewMemoryBuffer())
	chunks := []*world.Chunk{meshed(t, 0, 3, 0), meshed(t, 1, 9, 0), meshed(t, 2, 6, 0), meshed(t, 3, 12, 0)}
	for _, c := range chunks {
		require.NoError(t, batch.AddChunk(c))
	}
	require.NoError(t, batch.RemoveChunk(chunks[0]))
	require.NoError(t, batch.RemoveChunk(chunks[2]))

	next, total := 0, 0
	for _, r := range batch.Ranges() {
		assert.Equal(t, next, r.First)
		next += r.Count
		total += r.Count
	}
	assert.Equal(t, total, batch.VertexCount())
	assert.Equal(t, []DrawCommand{
		{Count: 9, InstanceCount: 1, First: 0, BaseInstance: 0},
		{Count: 12, InstanceCount: 1, First: 9, BaseInstance: 1},
	}, batch.IndirectCommands())
}

func TestBatchPreconditions(t *testing.T) {
	batch := newBatch(1, world.LayerOpaque, 1, NewMemoryBuffer())
	first := meshed(t, 0, 6, 0)
	require.NoError(t, batch.AddChunk(first))

	_, pending := first.Pending(world.LayerOpaque)
	assert.False(t, pending, "add consumes the pending list")

	assert.ErrorIs(t, batch.AddChunk(meshed(t, 1, 6, 0)), ErrBatchFull)
	assert.ErrorIs(t, batch.RemoveChunk(meshed(t, 2, 6, 0)), ErrNotMember)

	roomy := newBatch(2, world.LayerTransparent, 4, NewMemoryBuffer())
	assert.ErrorIs(t, roomy.AddChunk(meshed(t, 3, 6, 0)), ErrNoPendingVertices)
}

func TestDriverCapacitySpillsIntoNewBatch(t *testing.T) {
	const maxPerBatch = 4
	d := NewDriver(NewAllocator(maxPerBatch, nil), 1)
	var chunks []*world.Chunk
	for i := 0; i < maxPerBatch+1; i++ {
		c := meshed(t, i, 6, 0)
		chunks = append(chunks, c)
		d.Enqueue(c)
	}
	for d.Pending() > 0 {
		n, err := d.Tick()
		require.NoError(t, err)
		require.Equal(t, 1, n, "one chunk per tick")
	}

	batches := d.Allocator().Batches(world.LayerOpaque)
	require.Len(t, batches, 2)
	assert.NotSame(t, batches[0], batches[1])
	for _, b := range batches {
		assert.LessOrEqual(t, b.Len(), maxPerBatch)
	}
	for _, c := range chunks {
		assert.Equal(t, world.StateDone, c.State())
	}
}

func TestDriverLayersAreIndependent(t *testing.T) {
	d := NewDriver(NewAllocator(8, nil), 4)
	land, lake, empty := meshed(t, 0, 6, 0), meshed(t, 1, 6, 12), meshed(t, 2, 0, 0)
	d.Enqueue(land)
	d.Enqueue(lake)
	d.Enqueue(empty)
	d.Enqueue(land)
	assert.Equal(t, 3, d.Pending())

	n, err := d.Tick()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, d.Allocator().Batches(world.LayerOpaque), 1)
	require.Len(t, d.Allocator().Batches(world.LayerTransparent), 1)
	assert.Equal(t, 12, d.Allocator().Batches(world.LayerTransparent)[0].VertexCount())
	assert.Equal(t, world.StateDone, empty.State(), "empty chunks finish without a batch")
	assert.Equal(t, world.BatchSlot{}, empty.Slot(world.LayerOpaque))
}

func TestDriverRebatchesChangedMesh(t *testing.T) {
	d := NewDriver(NewAllocator(8, nil), 1)
	c := meshed(t, 0, 6, 0)
	other := meshed(t, 1, 6, 0)
	d.Enqueue(c)
	d.Enqueue(other)
	for d.Pending() > 0 {
		_, err := d.Tick()
		require.NoError(t, err)
	}

	// rollback and a new mesh with a different vertex count
	for _, tr := range []world.Trigger{world.TriggerRollback, world.TriggerMeshStart, world.TriggerMeshConstructed} {
		require.NoError(t, c.Advance(tr))
	}
	c.SetPending(world.LayerOpaque, geometry(0, 30))
	c.SetPending(world.LayerTransparent, nil)
	d.Enqueue(c)
	_, err := d.Tick()
	require.NoError(t, err)

	b := d.Allocator().Batches(world.LayerOpaque)[0]
	assert.Equal(t, []*world.Chunk{other, c}, b.Members(), "re-added at the tail")
	assert.Equal(t, []DrawRange{{First: 0, Count: 6}, {First: 6, Count: 30}}, b.Ranges())
	assert.Equal(t, world.StateDone, c.State())
}

func TestDriverEvictsRecycledChunks(t *testing.T) {
	g := world.NewGraph()
	g.StreamAround(world.ChunkCoord{}, 0)
	c := g.ChunkAt(world.ChunkCoord{})
	c.SetTerrain(make([]world.BlockID, world.ChunkVolume), make([]int16, world.ColumnCount))
	for _, tr := range []world.Trigger{
		world.TriggerNoiseGenerated, world.TriggerDecorated,
		world.TriggerMeshStart, world.TriggerMeshConstructed,
	} {
		require.NoError(t, c.Advance(tr))
	}
	c.SetPending(world.LayerOpaque, geometry(0, 6))

	var buffers []*MemoryBuffer
	alloc := NewAllocator(8, func() Buffer {
		b := &MemoryBuffer{}
		buffers = append(buffers, b)
		return b
	})
	d := NewDriver(alloc, 1)
	d.Enqueue(c)
	_, err := d.Tick()
	require.NoError(t, err)
	require.Len(t, buffers, 1)

	res := g.StreamAround(world.ChunkCoord{X: 10}, 0)
	require.Equal(t, []*world.Chunk{c}, res.Deactivated)
	d.Enqueue(c)
	_, err = d.Tick()
	require.NoError(t, err)

	assert.Empty(t, alloc.Batches(world.LayerOpaque))
	assert.Equal(t, world.BatchSlot{}, c.Slot(world.LayerOpaque))
	assert.True(t, buffers[0].Freed)
}

func TestBatchKeepsBoundsOfAddedGeometry(t *testing.T) {
	g := world.NewGraph()
	g.StreamAround(world.ChunkCoord{}, 0)
	c := g.ChunkAt(world.ChunkCoord{})
	heights := make([]int16, world.ColumnCount)
	for i := range heights {
		heights[i] = 40
	}
	c.SetTerrain(make([]world.BlockID, world.ChunkVolume), heights)
	for _, tr := range []world.Trigger{
		world.TriggerNoiseGenerated, world.TriggerDecorated,
		world.TriggerMeshStart, world.TriggerMeshConstructed,
	} {
		require.NoError(t, c.Advance(tr))
	}
	c.SetPending(world.LayerOpaque, geometry(0, 6))
	added := c.BoundingBox()

	batch := newBatch(1, world.LayerOpaque, 4, NewMemoryBuffer())
	require.NoError(t, batch.AddChunk(c))

	// recycled before the driver gets to evict it
	g.StreamAround(world.ChunkCoord{X: 10}, 0)
	require.Same(t, c, g.ChunkAt(world.ChunkCoord{X: 10}))
	assert.NotEqual(t, added, c.BoundingBox())
	assert.Equal(t, []world.AABB{added}, batch.Bounds())

	require.NoError(t, batch.RemoveChunk(c))
	assert.Empty(t, batch.Bounds())
}

func TestDriverFailsOnBufferOverflow(t *testing.T) {
	alloc := NewAllocator(8, func() Buffer { return &MemoryBuffer{Limit: 10 * world.VertexStride} })
	d := NewDriver(alloc, 2)
	fits, spills := meshed(t, 0, 6, 0), meshed(t, 1, 6, 0)
	d.Enqueue(fits)
	d.Enqueue(spills)

	_, err := d.Tick()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.ErrorContains(t, err, "place chunk")
	assert.Equal(t, world.StateDone, fits.State())
	assert.NotEqual(t, world.StateDone, spills.State())
}
