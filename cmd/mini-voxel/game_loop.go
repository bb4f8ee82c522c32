package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"mini-voxel/internal/config"
	"mini-voxel/internal/game"
	"mini-voxel/internal/input"
	"mini-voxel/internal/physics"
	"mini-voxel/internal/pipeline"
	"mini-voxel/internal/profiling"
	"mini-voxel/internal/world"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	flySpeed     = 12.0
	fastSpeed    = 48.0
	viewerWidth  = 0.3 // half extent
	viewerHeight = 1.6
)

// Run drives frames until the window closes or the pipeline fails.
func (v *Viewer) Run() error {
	limiter := game.NewFPSLimiter(v.cfg.TickRate)
	frames := 0
	lastFPSCheck := time.Now()
	lastTime := time.Now()

	for !v.window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
		v.handleInputActions()
		if !v.paused {
			func() { defer profiling.Track("viewer.move")(); v.move(float32(dt)) }()
		}

		pos := v.camera.Position
		if err := v.world.Tick(pos.X(), pos.Z(), config.GetRenderDistance()); err != nil {
			return err
		}
		if !v.paused {
			if err := v.interact(); err != nil {
				return err
			}
		}

		v.renderer.Render(v.world.Batcher().Allocator())
		func() { defer profiling.Track("glfw.SwapBuffers")(); v.window.SwapBuffers() }()
		v.input.PostUpdate()
		frames++

		if since := time.Since(lastFPSCheck); since >= time.Second {
			v.updateTitle(float64(frames) / since.Seconds())
			frames = 0
			lastFPSCheck = time.Now()
		}
		limiter.Wait(v.paused)
	}
	return nil
}

func (v *Viewer) handleInputActions() {
	if v.input.JustPressed(input.ActionPause) {
		v.paused = !v.paused
		if v.paused {
			v.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		} else {
			v.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			v.camera.ResetMouse()
		}
	}
	if v.input.JustPressed(input.ActionToggleWireframe) {
		v.renderer.Wireframe = !v.renderer.Wireframe
	}
	if v.input.JustPressed(input.ActionToggleProfiling) {
		v.profiling = !v.profiling
	}
	if v.input.JustPressed(input.ActionRenderDistanceUp) {
		config.SetRenderDistance(config.GetRenderDistance() + 1)
	}
	if v.input.JustPressed(input.ActionRenderDistanceDown) {
		config.SetRenderDistance(config.GetRenderDistance() - 1)
	}
}

// move flies the camera, one axis at a time so it slides along terrain
// instead of stopping dead.
func (v *Viewer) move(dt float32) {
	front := v.camera.Front()
	forward := mgl32.Vec3{front.X(), 0, front.Z()}
	if forward.Len() > 0 {
		forward = forward.Normalize()
	}
	right := v.camera.Right()

	var dir mgl32.Vec3
	if v.input.IsActive(input.ActionMoveForward) {
		dir = dir.Add(forward)
	}
	if v.input.IsActive(input.ActionMoveBackward) {
		dir = dir.Sub(forward)
	}
	if v.input.IsActive(input.ActionMoveRight) {
		dir = dir.Add(right)
	}
	if v.input.IsActive(input.ActionMoveLeft) {
		dir = dir.Sub(right)
	}
	if v.input.IsActive(input.ActionMoveUp) {
		dir[1]++
	}
	if v.input.IsActive(input.ActionMoveDown) {
		dir[1]--
	}
	if dir.Len() == 0 {
		return
	}
	speed := float32(flySpeed)
	if v.input.IsActive(input.ActionFast) {
		speed = fastSpeed
	}
	step := dir.Normalize().Mul(speed * dt)

	for axis := 0; axis < 3; axis++ {
		next := v.camera.Position
		next[axis] += step[axis]
		if !physics.Collides(viewerBox(next), v.world, v.reg) {
			v.camera.Position = next
		}
	}
}

// viewerBox is the space the camera occupies, eyes near the top.
func viewerBox(eye mgl32.Vec3) world.AABB {
	return world.AABB{
		Min: mgl32.Vec3{eye.X() - viewerWidth, eye.Y() - viewerHeight + 0.1, eye.Z() - viewerWidth},
		Max: mgl32.Vec3{eye.X() + viewerWidth, eye.Y() + 0.1, eye.Z() + viewerWidth},
	}
}

// interact breaks or places the block under the crosshair.
func (v *Viewer) interact() error {
	breaking := v.input.JustPressed(input.ActionBreak)
	placing := v.input.JustPressed(input.ActionPlace)
	if !breaking && !placing {
		return nil
	}
	hit := physics.Raycast(v.camera.Position, v.camera.Front(),
		physics.MinReachDistance, physics.MaxReachDistance, v.world, v.reg)
	if !hit.Hit {
		return nil
	}

	var err error
	if breaking {
		p := hit.HitPosition
		err = v.world.SetBlock(p[0], p[1], p[2], world.BlockAir)
	} else {
		p := hit.AdjacentPosition
		box := world.AABB{
			Min: mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])},
			Max: mgl32.Vec3{float32(p[0] + 1), float32(p[1] + 1), float32(p[2] + 1)},
		}
		if box.Intersects(viewerBox(v.camera.Position)) || p[1] < 0 || p[1] >= world.ChunkHeight {
			return nil
		}
		err = v.world.SetBlock(p[0], p[1], p[2], v.placeBlock)
	}
	if errors.Is(err, pipeline.ErrNotLoaded) {
		return nil
	}
	return err
}

func (v *Viewer) updateTitle(fps float64) {
	s := v.world.Stats()
	drawn, culled := v.renderer.Stats()
	v.window.SetTitle(fmt.Sprintf("mini-voxel | %.0f fps | radius %d | chunks %d done %d | batches %d+%d | drawn %d culled %d",
		fps, config.GetRenderDistance(), s.Active, s.ByState[world.StateDone],
		s.Batches[world.LayerOpaque], s.Batches[world.LayerTransparent], drawn, culled))
	if v.profiling {
		log.Printf("viewer: %s", profiling.TopN(5))
	}
}
