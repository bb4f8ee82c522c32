package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"mini-voxel/internal/registry"
	"mini-voxel/internal/render"
	"mini-voxel/internal/terrain"
	"mini-voxel/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slopeOracle rises one block every chunk along X.
type slopeOracle struct{}

func (slopeOracle) HeightAt(x, z int) float64 { return 20 + float64(x)/16 }

type fixture struct {
	w       *World
	palette terrain.Palette
	reg     *registry.Registry
}

func newFixture(t *testing.T, oracle terrain.Oracle, seaLevel int, exec Executor, mutate func(*Options)) *fixture {
	t.Helper()
	return newDecoratedFixture(t, oracle, seaLevel, exec, nil, mutate)
}

// newDecoratedFixture is newFixture with a custom decorator. nil grows trees.
func newDecoratedFixture(t *testing.T, oracle terrain.Oracle, seaLevel int, exec Executor,
	decorator terrain.Decorator, mutate func(*Options)) *fixture {
	t.Helper()
	reg := registry.Default()
	palette, err := terrain.PaletteFrom(reg)
	require.NoError(t, err)
	if decorator == nil {
		decorator = terrain.NewTreeDecorator(palette)
	}
	opts := Options{
		Seed:            5,
		MaxInFlight:     64,
		NoisePerTick:    64,
		DecoratePerTick: 64,
		MeshPerTick:     64,
		RebuildPerTick:  4,
	}
	if mutate != nil {
		mutate(&opts)
	}
	w := New(context.Background(), reg,
		terrain.NewGenerator(oracle, palette, seaLevel), palette,
		decorator, exec,
		render.NewDriver(render.NewAllocator(4, nil), 1), opts)
	t.Cleanup(w.Close)
	return &fixture{w: w, palette: palette, reg: reg}
}

// settle ticks until the pipeline is idle.
func (f *fixture) settle(t *testing.T, x, z float32, radius int) int {
	t.Helper()
	for i := 1; i <= 200; i++ {
		require.NoError(t, f.w.Tick(x, z, radius))
		if i > 1 && f.w.Stats().Settled() {
			return i
		}
	}
	t.Fatalf("pipeline did not settle: %+v", f.w.Stats())
	return 0
}

func TestCenterChunkWalksEveryStage(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, nil)

	var seq []world.State
	f.w.OnTransition(func(c *world.Chunk, from, to world.State) {
		switch to {
		case world.StateDecorated:
			assert.True(t, c.NeighborsAtLeast(world.StateNoiseGenerated), "%v decorated early", c.Coord())
		case world.StateMeshConstructing:
			assert.True(t, c.NeighborsAtLeast(world.StateDecorated), "%v meshed early", c.Coord())
		}
		if c.Coord() == (world.ChunkCoord{}) {
			seq = append(seq, to)
		}
	})
	f.settle(t, 8, 8, 1)

	assert.Equal(t, []world.State{
		world.StateNoiseGenerated,
		world.StateDecorated,
		world.StateMeshConstructing,
		world.StateMeshConstructed,
		world.StateDone,
	}, seq)

	stats := f.w.Stats()
	assert.Equal(t, 49, stats.Active, "two border rings around the view")
	assert.Equal(t, 9, stats.Visible)
	assert.Equal(t, 9, stats.ByState[world.StateDone])
	// 9 chunks at 4 per batch
	assert.Equal(t, 3, stats.Batches[world.LayerOpaque])
	assert.Equal(t, 0, stats.Batches[world.LayerTransparent])
}

func TestWaterLandsInTransparentBatches(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(50), 63, Inline{}, nil)
	f.settle(t, 0, 0, 0)

	stats := f.w.Stats()
	assert.Equal(t, 1, stats.Batches[world.LayerOpaque])
	assert.Equal(t, 1, stats.Batches[world.LayerTransparent])
	assert.Equal(t, f.palette.Water, f.w.GetBlock(3, 63, 3))
}

func TestTreesAreDecoratedAcrossBorders(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, func(o *Options) { o.TreeChance = 0.3 })
	f.settle(t, 8, 8, 2)

	logs := 0
	for x := -40; x < 40; x++ {
		for z := -40; z < 40; z++ {
			if f.w.GetBlock(x, 71, z) == f.palette.Log {
				logs++
			}
		}
	}
	assert.Greater(t, logs, 0)
	for _, c := range f.w.Graph().Active() {
		if f.w.InView(c) {
			assert.Equal(t, world.StateDone, c.State(), "%v", c.Coord())
		}
	}
}

func TestEditRebuildsAndRebatches(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, nil)
	f.settle(t, 8, 8, 1)

	rollbacks := map[world.ChunkCoord]int{}
	f.w.OnTransition(func(c *world.Chunk, from, to world.State) {
		if from == world.StateDone && to == world.StateDecorated {
			rollbacks[c.Coord()]++
		}
	})

	// world (0, 71, 8) is local (0, 71, 8) of the center: a west border block
	require.NoError(t, f.w.SetBlock(0, 71, 8, f.palette.Log))
	f.settle(t, 8, 8, 1)

	assert.Equal(t, map[world.ChunkCoord]int{
		{X: 0, Z: 0}:  1,
		{X: -1, Z: 0}: 1,
	}, rollbacks)
	assert.Equal(t, f.palette.Log, f.w.GetBlock(0, 71, 8))

	members := 0
	for _, b := range f.w.Batcher().Allocator().Batches(world.LayerOpaque) {
		members += b.Len()
	}
	assert.Equal(t, 9, members, "rebuilt chunks are re-added, not duplicated")
}

func TestSetBlockErrors(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, nil)
	f.settle(t, 0, 0, 0)

	assert.ErrorIs(t, f.w.SetBlock(500, 70, 0, f.palette.Stone), ErrNotLoaded)
	assert.ErrorIs(t, f.w.SetBlock(1, 70, 1, world.BlockID(f.reg.Len())), registry.ErrUnknownBlock)
	assert.Equal(t, world.BlockAir, f.w.GetBlock(500, 10, 0))
}

func TestStreamingRecyclesSlots(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, nil)
	f.settle(t, 8, 8, 1)
	f.settle(t, 8+3*16, 8, 1)

	stats := f.w.Stats()
	assert.Equal(t, 49, stats.Slots, "slots are reused, not reallocated")
	assert.Equal(t, 0, stats.Pooled)

	g := f.w.Graph()
	members := 0
	for l := world.Layer(0); l < world.NumLayers; l++ {
		for _, b := range f.w.Batcher().Allocator().Batches(l) {
			for _, m := range b.Members() {
				members++
				assert.Same(t, m, g.ChunkAt(m.Coord()), "batch member %v is active", m.Coord())
				assert.GreaterOrEqual(t, m.Coord().X, 0)
			}
		}
	}
	for _, c := range g.Active() {
		if f.w.InView(c) {
			assert.NotZero(t, c.Slot(world.LayerOpaque).Batch, "%v", c.Coord())
		}
	}
	// 9 in view, plus the old x=0 and x=1 columns now in the border rings
	assert.Equal(t, 15, members)
	for _, c := range g.Active() {
		for _, d := range world.Directions {
			if n := c.Neighbor(d); n != nil {
				assert.Same(t, c, n.Neighbor(d.Opposite()))
			}
		}
	}
}

// manual queues jobs until the test runs them.
type manual struct{ jobs []Job }

func (m *manual) Submit(job Job) bool {
	m.jobs = append(m.jobs, job)
	return true
}

func (m *manual) Shutdown() {}

func (m *manual) runAll() {
	jobs := m.jobs
	m.jobs = nil
	for _, j := range jobs {
		j(context.Background())
	}
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	exec := &manual{}
	// hold chunks at NoiseGenerated
	f := newFixture(t, slopeOracle{}, 0, exec, func(o *Options) { o.DecoratePerTick = 0 })

	// radius 0 plus the border rings is 25 chunks
	require.NoError(t, f.w.Tick(8, 8, 0))
	require.Len(t, exec.jobs, 25)
	c := f.w.Graph().ChunkAt(world.ChunkCoord{})
	require.True(t, c.InFlight())

	// move away before the jobs finish: every slot is recycled around x=10
	require.NoError(t, f.w.Tick(8+10*16, 8, 0))
	require.False(t, c.IsPooled())
	require.GreaterOrEqual(t, c.Coord().X, 8)
	require.Len(t, exec.jobs, 50, "the new identities get their own jobs")

	exec.runAll()
	require.NoError(t, f.w.Tick(8+10*16, 8, 0))

	assert.Equal(t, world.StateNoiseGenerated, c.State())
	assert.Equal(t, 20+c.Coord().X, c.SurfaceHeight(0, 0), "terrain belongs to the new coordinate")
	assert.Equal(t, 0, f.w.Stats().InFlight)
}

func TestInFlightCapLimitsSubmissions(t *testing.T) {
	exec := &manual{}
	f := newFixture(t, terrain.FlatOracle(70), 63, exec, func(o *Options) { o.MaxInFlight = 3 })

	require.NoError(t, f.w.Tick(0, 0, 2))
	assert.Len(t, exec.jobs, 3)
	require.NoError(t, f.w.Tick(0, 0, 2))
	assert.Len(t, exec.jobs, 3, "no room until results drain")

	exec.runAll()
	require.NoError(t, f.w.Tick(0, 0, 2))
	assert.Len(t, exec.jobs, 3)
	assert.Equal(t, 3, f.w.Stats().ByState[world.StateNoiseGenerated])
}

type brokenDecorator struct{}

func (brokenDecorator) Reach() int { return 1 }
func (brokenDecorator) Decorate(terrain.Placer, terrain.Column) error {
	return errors.New("malformed structure")
}

func TestDecorationFailureIsFatal(t *testing.T) {
	reg := registry.Default()
	palette, err := terrain.PaletteFrom(reg)
	require.NoError(t, err)
	w := New(context.Background(), reg,
		terrain.NewGenerator(terrain.FlatOracle(70), palette, 63), palette,
		brokenDecorator{}, Inline{},
		render.NewDriver(render.NewAllocator(4, nil), 1),
		Options{TreeChance: 1, MaxInFlight: 8, NoisePerTick: 8, DecoratePerTick: 8, MeshPerTick: 8, RebuildPerTick: 1})

	var tickErr error
	for i := 0; i < 10 && tickErr == nil; i++ {
		tickErr = w.Tick(0, 0, 0)
	}
	require.Error(t, tickErr)
	assert.ErrorContains(t, tickErr, "decoration stage")
	assert.ErrorContains(t, tickErr, "malformed structure")
}

func TestWorkerPoolSettles(t *testing.T) {
	pool := NewWorkerPool(4, 32)
	f := newFixture(t, terrain.NewValueOracle(11), 63, pool, func(o *Options) { o.TreeChance = 0.05 })

	deadline := time.Now().Add(10 * time.Second)
	for {
		require.NoError(t, f.w.Tick(0, 0, 2))
		if f.w.Stats().Settled() && f.w.Stats().Visible == 25 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pipeline did not settle: %+v", f.w.Stats())
		}
		time.Sleep(time.Millisecond)
	}
}

// opaqueVertices returns the positions of c's geometry in its opaque batch.
func opaqueVertices(t *testing.T, w *World, c *world.Chunk) []mgl32.Vec3 {
	t.Helper()
	slot := c.Slot(world.LayerOpaque)
	require.NotZero(t, slot.Batch, "chunk %v is not batched", c.Coord())
	b := w.Batcher().Allocator().Batch(slot.Batch)
	r := b.Ranges()[slot.Index]
	data := b.Vertices()[r.First*world.VertexStride : (r.First+r.Count)*world.VertexStride]
	out := make([]mgl32.Vec3, 0, r.Count)
	for i := 0; i < len(data); i += world.VertexStride {
		out = append(out, mgl32.Vec3{data[i], data[i+1], data[i+2]})
	}
	return out
}

// buriedWall reports whether p lies on a chunk border plane well below the
// surface of a flat world, where no face can be visible.
func buriedWall(p mgl32.Vec3) bool {
	onBorder := p.X() == 0 || p.X() == world.ChunkWidth || p.Z() == 0 || p.Z() == world.ChunkWidth
	return onBorder && p.Y() > 0 && p.Y() < 60
}

func TestMovedViewMeshesWithoutBuriedWalls(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, nil)
	f.settle(t, 8, 8, 1)
	f.settle(t, 8+16, 8, 1)

	checked := 0
	for _, c := range f.w.Graph().Active() {
		if !f.w.InView(c) {
			continue
		}
		checked++
		for _, p := range opaqueVertices(t, f.w, c) {
			require.False(t, buriedWall(p), "chunk %v has a border face at %v", c.Coord(), p)
		}
	}
	assert.Equal(t, 9, checked)
}

func TestReturningNeighborRefreshesBorderFaces(t *testing.T) {
	f := newFixture(t, terrain.FlatOracle(70), 63, Inline{}, nil)
	f.settle(t, 8, 8, 1)
	east := f.w.Graph().ChunkAt(world.ChunkCoord{X: 1})

	// a hole on the west face of (2,0) exposes (1,0)'s east wall
	require.NoError(t, f.w.SetBlock(32, 30, 8, world.BlockAir))
	f.settle(t, 8, 8, 1)
	exposed := func() bool {
		for _, p := range opaqueVertices(t, f.w, east) {
			if p.X() == world.ChunkWidth && p.Y() >= 30 && p.Y() <= 31 {
				return true
			}
		}
		return false
	}
	require.True(t, exposed())

	// (2,0) leaves the active set while (1,0) stays in the border rings
	f.settle(t, 8-2*16, 8, 1)
	require.Nil(t, f.w.Graph().ChunkAt(world.ChunkCoord{X: 2}))
	require.Same(t, east, f.w.Graph().ChunkAt(world.ChunkCoord{X: 1}))
	require.Equal(t, world.StateDone, east.State())

	// it streams back in regenerated, without the hole
	f.settle(t, 8, 8, 1)
	assert.NotEqual(t, world.BlockAir, f.w.GetBlock(32, 30, 8))
	assert.False(t, exposed(), "east wall is culled again")
	for _, p := range opaqueVertices(t, f.w, east) {
		require.False(t, buriedWall(p), "border face at %v", p)
	}
}

// westPost plants a log two columns west of every sampled column, so columns
// at x=0 write into the west neighbor.
type westPost struct{ log world.BlockID }

func (westPost) Reach() int { return 2 }
func (d westPost) Decorate(p terrain.Placer, col terrain.Column) error {
	p.SetBlock(col.X-2, col.Y+1, col.Z, d.log)
	return nil
}

func TestDecorationReachesChunksStreamedLater(t *testing.T) {
	reg := registry.Default()
	logID, err := reg.IndexOf(registry.Log)
	require.NoError(t, err)
	f := newDecoratedFixture(t, terrain.FlatOracle(70), 63, Inline{}, westPost{log: logID},
		func(o *Options) { o.TreeChance = 1 })
	f.settle(t, 8, 8, 1)
	f.settle(t, 8-16, 8, 1)

	checked := 0
	for _, c := range f.w.Graph().Active() {
		if !f.w.InView(c) {
			continue
		}
		checked++
		ox, oz := c.Coord().Origin()
		// odd columns are never sampled or written
		surface := c.SurfaceHeight(1, 1)
		for z := 0; z < world.ChunkWidth; z += 2 {
			assert.Equal(t, logID, f.w.GetBlock(ox-2, surface+1, oz+z),
				"post west of %v column z=%d", c.Coord(), z)
		}
	}
	assert.Equal(t, 9, checked)
}

func TestCanceledContextStopsTicks(t *testing.T) {
	reg := registry.Default()
	palette, err := terrain.PaletteFrom(reg)
	require.NoError(t, err)
	exec := &manual{}
	ctx, cancel := context.WithCancel(context.Background())
	w := New(ctx, reg,
		terrain.NewGenerator(terrain.FlatOracle(70), palette, 63), palette,
		terrain.NewTreeDecorator(palette), exec,
		render.NewDriver(render.NewAllocator(4, nil), 1),
		Options{MaxInFlight: 64, NoisePerTick: 64, DecoratePerTick: 64, MeshPerTick: 64, RebuildPerTick: 1})

	require.NoError(t, w.Tick(0, 0, 0))
	require.Len(t, exec.jobs, 25)

	cancel()
	assert.ErrorIs(t, w.Tick(0, 0, 0), context.Canceled)
	assert.False(t, w.submit(w.Graph().ChunkAt(world.ChunkCoord{}), "noise", nil), "no work after cancellation")
	assert.Len(t, exec.jobs, 25)
}
