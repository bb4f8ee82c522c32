package main

import (
	"context"
	"fmt"
	"log"

	"mini-voxel/internal/config"
	"mini-voxel/internal/graphics"
	"mini-voxel/internal/input"
	"mini-voxel/internal/physics"
	"mini-voxel/internal/pipeline"
	"mini-voxel/internal/registry"
	"mini-voxel/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// spawnTicks bounds how long startup waits for the spawn chunk's terrain.
const spawnTicks = 600

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(graphics.WinWidth, graphics.WinHeight, "mini-voxel", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	// Initialize OpenGL bindings
	if err := gl.Init(); err != nil {
		return nil, err
	}

	// the loop paces itself with game.FPSLimiter
	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return window, nil
}

// Viewer holds everything the frame loop touches.
type Viewer struct {
	window   *glfw.Window
	renderer *graphics.Renderer
	camera   *graphics.Camera
	world    *pipeline.World
	reg      *registry.Registry
	input    *input.InputManager
	cfg      config.Config

	placeBlock world.BlockID
	paused     bool
	profiling  bool
}

func setupViewer(ctx context.Context, window *glfw.Window, cfg config.Config) (*Viewer, error) {
	width, height := window.GetFramebufferSize()
	camera := graphics.NewCamera(width, height)
	r, err := graphics.NewRenderer(camera)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	// batch buffers are GL objects, so batching stays on this thread
	w, reg, err := pipeline.FromConfig(ctx, cfg, graphics.NewGLBuffer)
	if err != nil {
		r.Dispose()
		return nil, err
	}
	stone, err := reg.IndexOf(registry.Stone)
	if err != nil {
		r.Dispose()
		w.Close()
		return nil, err
	}

	v := &Viewer{
		window:     window,
		renderer:   r,
		camera:     camera,
		world:      w,
		reg:        reg,
		input:      input.NewInputManager(),
		cfg:        cfg,
		placeBlock: stone,
	}
	v.setupCallbacks()
	if err := v.spawn(); err != nil {
		v.Dispose()
		return nil, err
	}
	return v, nil
}

func (v *Viewer) setupCallbacks() {
	v.input.SetCallbacks(v.window)
	v.window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !v.paused {
			v.camera.HandleMouseMovement(xpos, ypos)
		}
	})
	v.window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		v.camera.SetViewport(fbWidth, fbHeight)
	})
}

// spawn ticks the pipeline until the origin column has terrain and puts the
// camera a few blocks above it.
func (v *Viewer) spawn() error {
	const x, z = 0.5, 0.5
	for i := 0; i < spawnTicks; i++ {
		if err := v.world.Tick(x, z, config.GetRenderDistance()); err != nil {
			return err
		}
		if ground, ok := physics.GroundLevel(x, z, world.ChunkHeight-1, v.world, v.reg); ok {
			v.camera.Position = mgl32.Vec3{x, ground + 3, z}
			log.Printf("viewer: spawned at %v after %d ticks", v.camera.Position, i+1)
			return nil
		}
		glfw.PollEvents()
	}
	v.camera.Position = mgl32.Vec3{x, float32(v.cfg.SeaLevel + 10), z}
	log.Printf("viewer: spawn column not ready, starting at %v", v.camera.Position)
	return nil
}

func (v *Viewer) Dispose() {
	v.renderer.Dispose()
	v.world.Close()
}
