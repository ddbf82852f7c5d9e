package worker

import (
	"context"
	"fmt"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// PanicResult is reported for a job that panicked
type PanicResult struct {
	Job   Job
	Value any
}

// GetError describes the panic
func (r *PanicResult) GetError() error {
	return fmt.Errorf("job panicked: %v", r.Value)
}

// Pool manages a pool of workers that execute jobs concurrently
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	collected   []Result
	collectDone chan struct{}
}

// NewPool creates a worker pool bound to parent. Cancelling parent stops
// the workers the same way Shutdown does.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:     workers,
		jobQueue:    make(chan Job, workers*2),
		results:     make(chan Result, workers*2),
		ctx:         ctx,
		cancelFunc:  cancel,
		collectDone: make(chan struct{}),
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	go p.collect()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// collect drains results as they arrive so workers never block on a full
// result buffer
func (p *Pool) collect() {
	defer close(p.collectDone)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			// The collector drains results until Wait or Shutdown closes them
			p.results <- p.run(job)
		}
	}
}

// run executes job, turning a panic into a PanicResult
func (p *Pool) run(job Job) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &PanicResult{Job: job, Value: r}
		}
	}()
	return job.Execute(p.ctx)
}

// Submit submits a job to the pool for execution
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait closes the queue, waits for all submitted jobs and returns their
// results in completion order
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	p.cancelFunc()
	return p.collected
}

// Shutdown stops the workers without waiting for queued jobs. Results of
// jobs that already finished are returned.
func (p *Pool) Shutdown() []Result {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.collectDone
	return p.collected
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
