package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// QueuePolicy decides what Submit does when the job buffer is full.
type QueuePolicy string

const (
	// PolicyBlock makes Submit wait for buffer space, applying backpressure
	// to the message queue consumer.
	PolicyBlock QueuePolicy = "block"
	// PolicyReject makes Submit fail fast with a temporary error so the
	// caller can surface overload instead of stalling.
	PolicyReject QueuePolicy = "reject"
)

type Task func(ctx context.Context)

// Pool runs tasks on a fixed number of goroutines fed by a bounded buffer.
// Concurrency is capped by worker count; memory is capped by queue size.
type Pool struct {
	workers int
	policy  QueuePolicy
	logger  *slog.Logger

	tasks chan Task
	wg    sync.WaitGroup

	// mu coordinates Submit and Close: Submit holds a read lock across the
	// channel send so Close can never close the buffer underneath a parked
	// sender.
	mu      sync.RWMutex
	started bool
	closed  bool
}

func New(workers, queueSize int, policy QueuePolicy, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if policy != PolicyReject {
		policy = PolicyBlock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		workers: workers,
		policy:  policy,
		logger:  logger,
		tasks:   make(chan Task, queueSize),
	}
}

// Start launches the workers. They run until ctx is cancelled and the
// buffer drains.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		if ctx.Err() != nil {
			p.logger.Info("worker discarding task on shutdown", "worker", id)
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("task panic recovered", "worker", id, "panic", fmt.Sprint(r))
				}
			}()
			task(ctx)
		}()
	}
}

// Submit enqueues a task. Under PolicyBlock it waits for space or ctx;
// under PolicyReject a full buffer returns a temporary error immediately.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("workerpool: nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("workerpool: pool closed")
	}

	switch p.policy {
	case PolicyReject:
		select {
		case p.tasks <- task:
			return nil
		default:
			return domain.WrapError(domain.ErrTemporary, "workerpool submit",
				fmt.Errorf("queue full (%d pending)", len(p.tasks)))
		}
	default:
		select {
		case p.tasks <- task:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// QueueDepth reports the number of buffered, not yet running tasks.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// Close stops accepting tasks and waits for the workers to finish what is
// already buffered. It waits for in-flight Submit calls before closing the
// buffer; a submit parked under PolicyBlock unparks via its context or a
// worker draining the buffer.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
