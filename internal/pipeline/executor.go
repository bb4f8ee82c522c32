package pipeline

import (
	"context"
	"sync"
)

// Job is a unit of background work. It must not touch live chunks.
type Job func(ctx context.Context)

// Executor runs jobs off the tick thread.
type Executor interface {
	// Submit queues job without blocking. It returns false when the job was
	// not accepted.
	Submit(job Job) bool
	Shutdown()
}

// WorkerPool runs jobs on a fixed set of goroutines fed by a bounded queue.
type WorkerPool struct {
	jobQueue chan Job
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool starts workers goroutines sharing a queue of queueSize jobs.
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		jobQueue: make(chan Job, queueSize),
		workers:  max(workers, 1),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// Submit returns false if the queue is full or the pool is shut down.
func (p *WorkerPool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false // Queue is full
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			job(p.ctx)
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for running jobs to return. Queued
// jobs that have not started are dropped.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// QueueLength returns the current number of jobs in the queue
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}

// Inline runs every job synchronously inside Submit. Tests use it to drive
// the pipeline deterministically.
type Inline struct{}

func (Inline) Submit(job Job) bool {
	job(context.Background())
	return true
}

func (Inline) Shutdown() {}
