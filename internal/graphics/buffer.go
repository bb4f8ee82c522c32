package graphics

import (
	"fmt"
	"log"

	"mini-voxel/internal/render"
	"mini-voxel/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
)

const (
	initialBufferBytes = 1 << 20
	maxBufferBytes     = 256 << 20
	floatBytes         = 4
)

// GLBuffer mirrors a render batch's vertex array into a VBO. It must be
// created and used on the thread that owns the GL context.
type GLBuffer struct {
	vao           uint32
	vbo           uint32
	capacityBytes int
	vertexCount   int32
}

// NewGLBuffer allocates the VAO/VBO pair. It matches render.BufferFactory.
func NewGLBuffer() render.Buffer {
	b := &GLBuffer{capacityBytes: initialBufferBytes}
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, b.capacityBytes, nil, gl.DYNAMIC_DRAW)
	b.setupVAO()
	glCheckError("NewGLBuffer")
	return b
}

func (b *GLBuffer) setupVAO() {
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)

	stride := int32(world.VertexStride * floatBytes)
	// position
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	// uv
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*floatBytes))
	// tint
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*floatBytes))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Upload replaces the VBO contents, growing the allocation when needed.
func (b *GLBuffer) Upload(data []float32) error {
	bytes := len(data) * floatBytes
	if bytes > maxBufferBytes {
		return fmt.Errorf("need %d bytes, max %d: %w", bytes, maxBufferBytes, render.ErrBufferOverflow)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if bytes > b.capacityBytes {
		b.capacityBytes = min(max(b.capacityBytes*2, bytes), maxBufferBytes)
		gl.BufferData(gl.ARRAY_BUFFER, b.capacityBytes, nil, gl.DYNAMIC_DRAW)
	}
	if bytes > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, bytes, gl.Ptr(data))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	b.vertexCount = int32(len(data) / world.VertexStride)
	glCheckError("GLBuffer.Upload")
	return nil
}

func (b *GLBuffer) Release() {
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	b.vertexCount = 0
}

func (b *GLBuffer) VAO() uint32        { return b.vao }
func (b *GLBuffer) VertexCount() int32 { return b.vertexCount }

func glCheckError(label string) {
	if err := gl.GetError(); err != gl.NO_ERROR {
		log.Printf("gl error %s: 0x%x", label, err)
	}
}
