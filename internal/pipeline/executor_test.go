package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolRunsJobs(t *testing.T) {
	pool := NewWorkerPool(3, 16)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		assert.True(t, pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		}))
	}
	wg.Wait()
	assert.EqualValues(t, 10, ran.Load())
}

func TestWorkerPoolRejectsWhenFull(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	defer pool.Shutdown()

	started := make(chan struct{})
	release := make(chan struct{})
	assert.True(t, pool.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	assert.True(t, pool.Submit(func(ctx context.Context) {}), "fills the queue")
	assert.False(t, pool.Submit(func(ctx context.Context) {}), "queue is full")
	assert.Equal(t, 1, pool.QueueLength())
	close(release)
}

func TestWorkerPoolShutdown(t *testing.T) {
	pool := NewWorkerPool(2, 4)
	pool.Shutdown()
	pool.Shutdown()
	assert.False(t, pool.Submit(func(ctx context.Context) {}))
}
