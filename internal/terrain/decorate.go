package terrain

import (
	"context"
	"fmt"

	"mini-voxel/internal/world"

	"golang.org/x/sync/errgroup"
)

// Placer is the block access a decorator works through. Coordinates are
// chunk-local; x and z may fall outside [0, ChunkWidth) and reach into
// neighboring chunks.
type Placer interface {
	GetBlockId(x, y, z int) world.BlockID
	SetBlock(x, y, z int, id world.BlockID)
}

// Column is a sampled decoration site. Y is the surface block. Rand is a
// per-site random value derived from the world position and seed.
type Column struct {
	X, Y, Z int
	Rand    uint64
}

// Decorator places a structure at a sampled column.
type Decorator interface {
	// Reach is the furthest horizontal distance from its column a structure
	// writes to.
	Reach() int
	Decorate(p Placer, col Column) error
}

// SampleColumns picks every second column whose surface block is surface and
// keeps each one with probability chance.
func SampleColumns(vol *world.Volume, seed int64, chance float64, surface world.BlockID) []Column {
	var out []Column
	ox, oz := vol.Coord.Origin()
	for x := 0; x < world.ChunkWidth; x += 2 {
		for z := 0; z < world.ChunkWidth; z += 2 {
			y := vol.SurfaceHeight(x, z)
			if y < 0 || vol.Get(x, y, z) != surface {
				continue
			}
			h := hash3(int64(ox+x), int64(y), int64(oz+z), seed)
			if unit(h) >= chance {
				continue
			}
			out = append(out, Column{X: x, Y: y, Z: z, Rand: mix64(h)})
		}
	}
	return out
}

// Write is one block placement recorded during decoration.
type Write struct {
	X, Y, Z int
	ID      world.BlockID
}

// Recorder is a Placer over a volume snapshot. Writes are logged and layered
// over the snapshot instead of touching live chunks; writes beyond the
// snapshot margin are dropped.
type Recorder struct {
	vol     *world.Volume
	overlay map[world.LocalPos]world.BlockID
	writes  []Write
}

func NewRecorder(vol *world.Volume) *Recorder {
	return &Recorder{vol: vol, overlay: make(map[world.LocalPos]world.BlockID)}
}

func (r *Recorder) GetBlockId(x, y, z int) world.BlockID {
	if id, ok := r.overlay[world.LocalPos{X: x, Y: y, Z: z}]; ok {
		return id
	}
	return r.vol.Get(x, y, z)
}

func (r *Recorder) SetBlock(x, y, z int, id world.BlockID) {
	m := r.vol.Margin
	if y < 0 || y >= world.ChunkHeight ||
		x < -m || x >= world.ChunkWidth+m || z < -m || z >= world.ChunkWidth+m {
		return
	}
	r.overlay[world.LocalPos{X: x, Y: y, Z: z}] = id
	r.writes = append(r.writes, Write{X: x, Y: y, Z: z, ID: id})
}

// Writes returns the placements in the order they were made.
func (r *Recorder) Writes() []Write { return r.writes }

// Decorate runs d at every column as concurrent sub-tasks and joins them. The
// writes come back grouped in column order so replaying them is
// deterministic.
func Decorate(ctx context.Context, vol *world.Volume, cols []Column, d Decorator) ([]Write, error) {
	results := make([][]Write, len(cols))
	g, ctx := errgroup.WithContext(ctx)
	for i, col := range cols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := NewRecorder(vol)
			if err := d.Decorate(rec, col); err != nil {
				return fmt.Errorf("decorate column (%d,%d): %w", col.X, col.Z, err)
			}
			results[i] = rec.Writes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []Write
	for _, ws := range results {
		out = append(out, ws...)
	}
	return out, nil
}
