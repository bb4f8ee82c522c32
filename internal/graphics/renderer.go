package graphics

import (
	"embed"
	"unsafe"

	"mini-voxel/internal/profiling"
	"mini-voxel/internal/render"
	"mini-voxel/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	WinWidth  = 1280
	WinHeight = 720
)

//go:embed shaders/*.vert shaders/*.frag
var shaderFS embed.FS

const commandBytes = int(unsafe.Sizeof(render.DrawCommand{}))

var (
	skyColor   = mgl32.Vec4{0.53, 0.81, 0.92, 1.0}
	lightDir   = mgl32.Vec3{0.3, 1.0, 0.3}.Normalize()
	waterColor = mgl32.Vec3{0.25, 0.45, 0.85}
)

// Renderer draws the batches of a render.Allocator. Each batch's indirect
// commands are uploaded once per frame, with frustum-culled members given a
// zero instance count, and every visible member is drawn from that buffer
// with its transform bound as the model matrix.
type Renderer struct {
	shader *Shader
	camera *Camera

	indirect      uint32
	indirectBytes int

	// Frustum culling margin in blocks (inflates AABBs before testing)
	frustumMargin float32
	Wireframe     bool

	drawn  int
	culled int
}

func NewRenderer(camera *Camera) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	// meshing emits CCW front faces
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	shader, err := NewShader(shaderFS, "shaders/chunk.vert", "shaders/chunk.frag")
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		shader:        shader,
		camera:        camera,
		frustumMargin: 1.0,
	}
	gl.GenBuffers(1, &r.indirect)
	return r, nil
}

func (r *Renderer) Camera() *Camera { return r.camera }

// Stats returns how many chunk draws were issued and culled last frame.
func (r *Renderer) Stats() (drawn, culled int) { return r.drawn, r.culled }

// Render draws the opaque family, then the transparent one blended on top.
func (r *Renderer) Render(alloc *render.Allocator) {
	defer profiling.Track("graphics.Renderer.Render")()
	r.drawn, r.culled = 0, 0

	gl.ClearColor(skyColor[0], skyColor[1], skyColor[2], skyColor[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if r.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	view := r.camera.GetViewMatrix()
	proj := r.camera.GetProjectionMatrix()
	frustum := NewFrustum(proj.Mul4(view))

	r.shader.Use()
	r.shader.SetMatrix4("proj", &proj[0])
	r.shader.SetMatrix4("view", &view[0])
	r.shader.SetVector3("lightDir", lightDir.X(), lightDir.Y(), lightDir.Z())

	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, r.indirect)
	defer gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)

	r.shader.SetFloat("alpha", 1)
	r.shader.SetVector3("layerColor", 1, 1, 1)
	r.drawLayer(alloc, world.LayerOpaque, frustum)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)
	r.shader.SetFloat("alpha", 0.65)
	r.shader.SetVector3("layerColor", waterColor.X(), waterColor.Y(), waterColor.Z())
	r.drawLayer(alloc, world.LayerTransparent, frustum)
	gl.Enable(gl.CULL_FACE)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)

	gl.BindVertexArray(0)
}

func (r *Renderer) drawLayer(alloc *render.Allocator, layer world.Layer, frustum Frustum) {
	defer profiling.Track("graphics.Renderer.drawLayer." + layer.String())()
	for _, b := range alloc.Batches(layer) {
		buf, ok := b.Buffer().(*GLBuffer)
		if !ok || buf.VertexCount() == 0 {
			continue
		}
		cmds := b.IndirectCommands()
		bounds := b.Bounds()
		visible := 0
		for i := range cmds {
			// GL 4.1 reserves the last field and requires zero
			cmds[i].BaseInstance = 0
			if !frustum.Intersects(bounds[i], r.frustumMargin) {
				cmds[i].InstanceCount = 0
				r.culled++
				continue
			}
			visible++
		}
		if visible == 0 {
			continue
		}
		r.uploadCommands(cmds)

		gl.BindVertexArray(buf.VAO())
		transforms := b.Transforms()
		for i, cmd := range cmds {
			if cmd.InstanceCount == 0 {
				continue
			}
			r.shader.SetMatrix4("model", &transforms[i][0])
			gl.DrawArraysIndirect(gl.TRIANGLES, gl.PtrOffset(i*commandBytes))
			r.drawn++
		}
	}
}

func (r *Renderer) uploadCommands(cmds []render.DrawCommand) {
	bytes := len(cmds) * commandBytes
	if bytes > r.indirectBytes {
		r.indirectBytes = max(bytes, 2*r.indirectBytes)
		gl.BufferData(gl.DRAW_INDIRECT_BUFFER, r.indirectBytes, nil, gl.STREAM_DRAW)
	}
	gl.BufferSubData(gl.DRAW_INDIRECT_BUFFER, 0, bytes, gl.Ptr(cmds))
}

// Dispose frees the program and the indirect buffer. Batch buffers belong to
// the allocator.
func (r *Renderer) Dispose() {
	if r.indirect != 0 {
		gl.DeleteBuffers(1, &r.indirect)
		r.indirect = 0
	}
	r.shader.Delete()
}
