package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/rs/zerolog"
)

// Task is a unit of work executed by the pool.
type Task func()

// PoolConfig holds configuration for the worker pool
type PoolConfig struct {
	Workers int // Number of worker goroutines (default: runtime.NumCPU())
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Workers: runtime.NumCPU()}
}

// Pool runs submitted tasks on a fixed set of goroutines. The queue is
// unbounded so Submit never blocks the caller.
type Pool struct {
	logger  zerolog.Logger
	workers int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates and starts a worker pool
func NewPool(config PoolConfig, logger zerolog.Logger) *Pool {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		logger:  logger.With().Str("component", "WorkerPool").Logger(),
		workers: workers,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	p.logger.Debug().Int("workers", workers).Msg("Worker pool started")
	return p
}

// Submit enqueues task. It fails once the pool has been shut down.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errorwrapper.NilArgument("task")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errorwrapper.NewStateError("submit", "worker pool is shut down")
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Pending returns the number of queued tasks not yet picked up by a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Shutdown stops accepting tasks, drains the queue and waits for workers to
// exit or ctx to be done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug().Msg("Worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn().Int("pending", p.Pending()).Msg("Worker pool shutdown timed out")
		return ctx.Err()
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.execute(id, task)
	}
}

func (p *Pool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Str("panic", fmt.Sprint(r)).
				Msg("Task panicked")
		}
	}()
	task()
}
