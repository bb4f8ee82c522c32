package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighborSymmetryAfterStreaming(t *testing.T) {
	g := NewGraph()
	g.StreamAround(ChunkCoord{}, 2)
	g.StreamAround(ChunkCoord{X: 1, Z: -1}, 2)

	for _, c := range g.Active() {
		for _, d := range Directions {
			n := c.Neighbor(d)
			if n == nil {
				continue
			}
			assert.Same(t, c, n.Neighbor(d.Opposite()), "%v %s", c.Coord(), d)
			assert.Equal(t, c.Coord().Step(d), n.Coord())
		}
	}
}

func TestStreamRingOrder(t *testing.T) {
	g := NewGraph()
	g.StreamAround(ChunkCoord{X: 5, Z: 5}, 2)

	active := g.Active()
	require.Len(t, active, 25)
	assert.Equal(t, ChunkCoord{X: 5, Z: 5}, active[0].Coord())
	ring := func(c ChunkCoord) int {
		return max(abs(c.X-5), abs(c.Z-5))
	}
	for i := 1; i < len(active); i++ {
		assert.LessOrEqual(t, ring(active[i-1].Coord()), ring(active[i].Coord()))
	}
}

func TestPoolingRoundTrip(t *testing.T) {
	g := NewGraph()
	g.StreamAround(ChunkCoord{}, 1)
	for _, c := range g.Active() {
		c.SetTerrain(flatTerrain(4))
		require.NoError(t, c.Advance(TriggerNoiseGenerated))
	}
	edge := g.ChunkAt(ChunkCoord{X: -1, Z: 0})
	gen := edge.Generation()

	// shift east by one: the west column leaves and its slots are reused
	res := g.StreamAround(ChunkCoord{X: 1}, 1)
	require.Len(t, res.Deactivated, 3)
	require.Len(t, res.Activated, 3)
	assert.Equal(t, 9, g.Slots(), "no new slots allocated")
	assert.Equal(t, 0, g.PoolSize())

	assert.Contains(t, res.Deactivated, edge)
	assert.Equal(t, StateNone, edge.State())
	assert.Nil(t, edge.Voxels())
	assert.Nil(t, edge.Heightmap())
	assert.Greater(t, edge.Generation(), gen)
	assert.False(t, edge.IsPooled(), "slot was reactivated")
	assert.GreaterOrEqual(t, edge.Coord().X, 2)
	for _, d := range Directions {
		if n := edge.Neighbor(d); n != nil {
			assert.Same(t, edge, n.Neighbor(d.Opposite()))
		}
	}
	assert.Nil(t, g.ChunkAt(ChunkCoord{X: -1}))
}

func TestReleaseClearsChunk(t *testing.T) {
	g := NewGraph()
	g.StreamAround(ChunkCoord{}, 1)
	c := g.ChunkAt(ChunkCoord{X: 1, Z: 1})
	c.SetTerrain(flatTerrain(4))
	c.SetPending(LayerOpaque, []Vertex{{}})
	c.SetSlot(LayerOpaque, BatchSlot{Batch: 3, Index: 1})
	c.SetBlock(2, 2, 2, BlockAir)

	g.StreamAround(ChunkCoord{X: -5}, 0)
	assert.True(t, c.IsPooled())
	assert.Equal(t, StateNone, c.State())
	assert.Nil(t, c.Voxels())
	assert.False(t, c.IsAwaitingRebuild())
	for _, d := range Directions {
		assert.Nil(t, c.Neighbor(d))
	}
	_, ok := c.Pending(LayerOpaque)
	assert.False(t, ok)
	assert.Equal(t, BatchSlot{Batch: 3, Index: 1}, c.Slot(LayerOpaque), "membership waits for the batch driver")
	assert.Equal(t, 8, g.PoolSize())
}

func TestStreamSkipsUnchangedCenter(t *testing.T) {
	g := NewGraph()
	first := g.Stream(3.5, -0.5, 1)
	assert.Len(t, first.Activated, 9)
	assert.Equal(t, ChunkCoord{X: 0, Z: -1}, g.Center())

	again := g.Stream(10, -8, 1)
	assert.Empty(t, again.Activated)
	assert.Empty(t, again.Deactivated)
}

func TestObserverSeesTransitions(t *testing.T) {
	g := NewGraph()
	var seen []State
	g.SetObserver(func(c *Chunk, from, to State) { seen = append(seen, to) })
	g.StreamAround(ChunkCoord{}, 0)

	c := g.ChunkAt(ChunkCoord{})
	require.NoError(t, c.Advance(TriggerNoiseGenerated))
	assert.Error(t, c.Advance(TriggerBatched))
	g.StreamAround(ChunkCoord{X: 9}, 0)

	assert.Equal(t, []State{StateNoiseGenerated, StateNone}, seen)
}

func TestChunkAtWorld(t *testing.T) {
	g := NewGraph()
	g.StreamAround(ChunkCoord{}, 1)

	c, lx, lz := g.ChunkAtWorld(-1, 17)
	require.NotNil(t, c)
	assert.Equal(t, ChunkCoord{X: -1, Z: 1}, c.Coord())
	assert.Equal(t, 15, lx)
	assert.Equal(t, 1, lz)

	c, _, _ = g.ChunkAtWorld(100, 0)
	assert.Nil(t, c)
}

func TestVolumeSnapshot(t *testing.T) {
	g := streamedGrid(t, 1)
	center := g.ChunkAt(ChunkCoord{})
	g.ChunkAt(ChunkCoord{X: -1}).SetDecorationBlock(15, 20, 4, testDirt)

	v := SnapshotVolume(center, 1)
	assert.Equal(t, testDirt, v.Get(-1, 20, 4))
	assert.Equal(t, testStone, v.Get(16, 10, 16))
	assert.Equal(t, BlockAir, v.Get(-2, 5, 4), "beyond margin")
	assert.Equal(t, 20, v.SurfaceHeight(-1, 4))

	center.SetBlock(3, 30, 3, testDirt)
	assert.Equal(t, BlockAir, v.Get(3, 30, 3), "snapshot is a copy")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
