// Command voxel-sim runs the chunk pipeline without a window. A viewer moves
// along a fixed path while pipeline stats are logged and Prometheus metrics
// are served.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"

	"mini-voxel/internal/config"
	"mini-voxel/internal/game"
	"mini-voxel/internal/physics"
	"mini-voxel/internal/pipeline"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/render"
	"mini-voxel/internal/world"

	"github.com/xlab/closer"
)

type options struct {
	ticks  int
	speed  float32
	report int
	dig    int
}

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $"+config.EnvPath+")")
	ticks := flag.Int("ticks", 0, "stop after this many ticks; 0 runs until interrupted")
	speed := flag.Float64("speed", 0.5, "viewer speed in blocks per tick")
	report := flag.Int("report", 120, "log pipeline stats every N ticks")
	dig := flag.Int("dig", 30, "remove the surface block under the viewer every N ticks; 0 disables")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.SetRenderDistance(cfg.ViewRadius)

	ctx, cancel := context.WithCancel(context.Background())
	w, reg, err := pipeline.FromConfig(ctx, cfg, render.NewMemoryBuffer)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
		w.Close()
		log.Printf("sim: stopped")
	})

	go func() {
		opts := options{ticks: *ticks, speed: float32(*speed), report: *report, dig: *dig}
		err := run(ctx, w, reg, cfg, opts)
		close(done)
		if err != nil {
			closer.Fatalln(err)
		}
		closer.Close()
	}()
	closer.Hold()
}

func run(ctx context.Context, w *pipeline.World, reg *registry.Registry, cfg config.Config, opts options) error {
	limiter := game.NewFPSLimiter(cfg.TickRate)
	var x, z float32
	for i := 1; opts.ticks == 0 || i <= opts.ticks; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		profiling.ResetFrame()

		x += opts.speed
		z = 24 * float32(math.Sin(float64(i)/200))
		if err := w.Tick(x, z, config.GetRenderDistance()); errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}

		if opts.dig > 0 && i%opts.dig == 0 {
			if err := digBelow(w, reg, x, z); err != nil {
				return fmt.Errorf("tick %d: %w", i, err)
			}
		}
		if opts.report > 0 && i%opts.report == 0 {
			logStats(i, x, z, w.Stats())
		}
		limiter.Wait(false)
	}
	logStats(opts.ticks, x, z, w.Stats())
	return nil
}

// digBelow clears the top solid block of the viewer's column, once its chunk
// has terrain.
func digBelow(w *pipeline.World, reg *registry.Registry, x, z float32) error {
	top, ok := physics.GroundLevel(x, z, world.ChunkHeight-1, w, reg)
	if !ok {
		return nil
	}
	bx, by, bz := int(math.Floor(float64(x))), int(top)-1, int(math.Floor(float64(z)))
	if err := w.SetBlock(bx, by, bz, world.BlockAir); err != nil && !errors.Is(err, pipeline.ErrNotLoaded) {
		return err
	}
	return nil
}

func logStats(tick int, x, z float32, s pipeline.Stats) {
	log.Printf("sim: tick=%d viewer=(%.1f,%.1f) active=%d ready=%d/%d pooled=%d slots=%d in_flight=%d queued=%d done=%d batches=%d/%d",
		tick, x, z, s.Active, s.Ready, s.Visible, s.Pooled, s.Slots, s.InFlight, s.Queued,
		s.ByState[world.StateDone], s.Batches[world.LayerOpaque], s.Batches[world.LayerTransparent])
	if top := profiling.TopN(3); top != "" {
		log.Printf("sim: slowest %s", top)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", profiling.Handler())
	log.Printf("sim: metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("sim: metrics server: %v", err)
	}
}
