package render

import (
	"errors"
	"fmt"
)

// ErrBufferOverflow is returned by Upload when data does not fit the buffer's
// hard limit.
var ErrBufferOverflow = errors.New("vertex data exceeds buffer limit")

// Buffer is the GPU-side store a batch mirrors its vertex array into.
type Buffer interface {
	// Upload replaces the buffer contents with data. On error the buffer no
	// longer matches the batch.
	Upload(data []float32) error
	Release()
}

// BufferFactory creates the backing buffer for a new batch.
type BufferFactory func() Buffer

// MemoryBuffer keeps uploads in host memory. Headless runs and tests use it.
// Limit caps the float count when positive.
type MemoryBuffer struct {
	Data    []float32
	Uploads int
	Freed   bool
	Limit   int
}

func NewMemoryBuffer() Buffer { return &MemoryBuffer{} }

func (b *MemoryBuffer) Upload(data []float32) error {
	if b.Limit > 0 && len(data) > b.Limit {
		return fmt.Errorf("%d floats, limit %d: %w", len(data), b.Limit, ErrBufferOverflow)
	}
	b.Data = append(b.Data[:0], data...)
	b.Uploads++
	return nil
}

func (b *MemoryBuffer) Release() {
	b.Data = nil
	b.Freed = true
}
