/*
Package worker runs file conversions concurrently with optional rate limiting
and context cancellation.

A failing task never stops the others: its error is stored in its Result and
the pool keeps going. Wait returns every result in submission order.

Basic usage:

	pool, err := worker.NewPool(worker.Config{
		Workers:   4,
		RateLimit: 10, // 10 files/sec
		OnResult:  func(r worker.Result) { bar.Increment() },
	})
	if err != nil {
		return err
	}

	if err := pool.Start(ctx); err != nil {
		return err
	}

	pool.Submit(worker.Task{
		ID:   1,
		Name: "sample_CV.DTA",
		Execute: func(ctx context.Context) (worker.Result, error) {
			return worker.Result{Data: converted}, nil
		},
	})

	results, err := pool.Wait()
*/
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotStarted is returned by Submit and Wait before Start
var ErrNotStarted = errors.New("pool not started")

// ErrClosed is returned by Submit once Wait or Stop was called
var ErrClosed = errors.New("pool is closed")

// Task represents one unit of work, usually one input file
type Task struct {
	// ID identifies the task in its Result
	ID int

	// Name is a label for logs and progress output
	Name string

	// Execute does the work. It must honour ctx.
	Execute func(context.Context) (Result, error)
}

// Result is the outcome of a task
type Result struct {
	// ID and Name are copied from the task
	ID   int
	Name string

	// Data is whatever Execute returned
	Data interface{}

	// Err is the error returned by Execute, a recovered panic, or the
	// context error for tasks that never ran
	Err error

	// Duration is the time spent in Execute
	Duration time.Duration

	order int
}

// Config holds the configuration for the worker pool
type Config struct {
	// Workers is the number of concurrent workers
	Workers int

	// RateLimit is the maximum number of tasks started per second (0 for unlimited)
	RateLimit int

	// OnResult, when set, is called for every finished task. Calls come from
	// a single goroutine, never concurrently.
	OnResult func(Result)
}

// Pool defines the interface for a worker pool
type Pool interface {
	// Start launches the workers
	Start(context.Context) error

	// Submit queues a task. It blocks while the queue is full.
	Submit(Task) error

	// Wait stops accepting tasks, waits for the queue to drain and returns
	// all results in submission order. The error is non-nil only when the
	// pool context was cancelled.
	Wait() ([]Result, error)

	// GetStats returns current statistics about the pool
	GetStats() Stats

	// Status returns the current status of the pool
	Status() Status

	// Stop cancels outstanding work and shuts the pool down
	Stop() error
}

type pool struct {
	config  Config
	tasks   chan taskWithOrder
	results chan Result
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	wg            sync.WaitGroup
	collectorDone chan struct{}

	mu        sync.RWMutex
	started   bool
	closed    bool
	stopped   bool
	startTime time.Time
	taskOrder int

	orderMu sync.Mutex

	closeOnce  sync.Once
	finishOnce sync.Once

	collectedMu sync.Mutex
	collected   []Result

	activeWorkers atomic.Int32
	submitted     atomic.Int32
	completed     atomic.Int32
	failed        atomic.Int32
}

type taskWithOrder struct {
	Task
	order int
}

// NewPool creates a new worker pool with the given configuration
func NewPool(config Config) (Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &pool{
		config:        config,
		tasks:         make(chan taskWithOrder, config.Workers*2),
		results:       make(chan Result, config.Workers*2),
		limiter:       limiter,
		collectorDone: make(chan struct{}),
	}, nil
}

func validateConfig(config Config) error {
	if config.Workers <= 0 {
		return fmt.Errorf("number of workers must be positive")
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}
	return nil
}

// Start initializes and starts the worker pool
func (p *pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pool already started")
	}
	if p.stopped {
		return ErrClosed
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
	p.startTime = time.Now()

	go p.collect()

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return nil
}

// Submit adds a task to the pool for processing
func (p *pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return ErrNotStarted
	}
	if p.closed {
		return ErrClosed
	}
	if err := p.ctx.Err(); err != nil {
		return fmt.Errorf("pool is shutting down: %w", err)
	}

	item := taskWithOrder{Task: task, order: p.nextOrder()}

	select {
	case <-p.ctx.Done():
		return fmt.Errorf("pool is shutting down: %w", p.ctx.Err())
	case p.tasks <- item:
		p.submitted.Add(1)
		return nil
	}
}

func (p *pool) nextOrder() int {
	p.orderMu.Lock()
	defer p.orderMu.Unlock()
	order := p.taskOrder
	p.taskOrder++
	return order
}

// Wait blocks until all submitted tasks are processed
func (p *pool) Wait() ([]Result, error) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil, ErrNotStarted
	}
	p.closeTasks()
	p.mu.Unlock()

	p.finish()

	// read before cancel releases the context
	err := p.ctx.Err()
	p.cancel()

	return p.sortedResults(), err
}

// Stop cancels the pool context and waits briefly for the workers
func (p *pool) Stop() error {
	// unblock a Submit waiting on a full queue before taking the write lock
	p.mu.RLock()
	cancel := p.cancel
	p.mu.RUnlock()
	if cancel != nil {
		cancel()
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.closeTasks()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.finish()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("shutdown timed out")
	}
}

// closeTasks is called with p.mu held
func (p *pool) closeTasks() {
	p.closeOnce.Do(func() {
		p.closed = true
		close(p.tasks)
	})
}

func (p *pool) finish() {
	p.finishOnce.Do(func() {
		p.wg.Wait()
		close(p.results)
		<-p.collectorDone
	})
	<-p.collectorDone
}

func (p *pool) sortedResults() []Result {
	p.collectedMu.Lock()
	defer p.collectedMu.Unlock()

	results := make([]Result, len(p.collected))
	copy(results, p.collected)
	sort.Slice(results, func(i, j int) bool {
		return results[i].order < results[j].order
	})
	return results
}

func (p *pool) GetStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var uptime time.Duration
	if p.started {
		uptime = time.Since(p.startTime)
	}

	return Stats{
		ActiveWorkers:  int(p.activeWorkers.Load()),
		QueuedTasks:    len(p.tasks),
		SubmittedTasks: int(p.submitted.Load()),
		CompletedTasks: int(p.completed.Load()),
		FailedTasks:    int(p.failed.Load()),
		Status:         p.getStatus(),
		Uptime:         uptime,
	}
}

func (p *pool) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.getStatus()
}

// getStatus is called with p.mu held
func (p *pool) getStatus() Status {
	if !p.started || p.stopped {
		return StatusStopped
	}

	busy := p.activeWorkers.Load() > 0 || len(p.tasks) > 0
	if p.closed {
		if busy {
			return StatusShuttingDown
		}
		return StatusStopped
	}
	if busy {
		return StatusProcessing
	}
	return StatusIdle
}

func (p *pool) collect() {
	defer close(p.collectorDone)

	for result := range p.results {
		if p.config.OnResult != nil {
			p.config.OnResult(result)
		}
		p.collectedMu.Lock()
		p.collected = append(p.collected, result)
		p.collectedMu.Unlock()
	}
}

func (p *pool) worker(id int) {
	defer p.wg.Done()

	for item := range p.tasks {
		result := p.run(item.Task)
		result.order = item.order

		if result.Err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}

		p.results <- result
	}
}

func (p *pool) run(task Task) (result Result) {
	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)

	if err := p.ctx.Err(); err != nil {
		return Result{ID: task.ID, Name: task.Name, Err: err}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(p.ctx); err != nil {
			return Result{ID: task.ID, Name: task.Name, Err: fmt.Errorf("rate limiter error: %w", err)}
		}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Result{ID: task.ID, Name: task.Name, Err: fmt.Errorf("task %d panicked: %v", task.ID, r)}
		}
		result.Duration = time.Since(start)
	}()

	result, err := task.Execute(p.ctx)
	result.ID = task.ID
	result.Name = task.Name
	if err != nil {
		result.Err = fmt.Errorf("task %d failed: %w", task.ID, err)
	}
	return result
}
