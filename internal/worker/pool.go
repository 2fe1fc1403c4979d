// Package worker runs poster jobs in parallel.
package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/poorfish/maptoposter/internal/pipeline"
)

// Generator produces one poster. *pipeline.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, job pipeline.Job) (*pipeline.Output, error)
}

// Task is one poster job with a display name.
type Task struct {
	Name string
	Job  pipeline.Job
}

// Result is the outcome of a task.
type Result struct {
	Task    Task
	Output  *pipeline.Output
	Err     error
	Elapsed time.Duration

	index int
}

// Degraded reports whether the poster was written from first-stage data only.
func (r Result) Degraded() bool {
	return r.Err == nil && r.Output != nil && r.Output.Status == pipeline.StatusDegraded
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool runs poster tasks on a fixed number of workers.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

type indexedTask struct {
	index int
	task  Task
}

// Run executes all tasks and returns one result per task, in task order.
// It blocks until every task has finished or been cancelled; tasks not
// started before ctx is done report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan indexedTask, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	for i, task := range tasks {
		taskCh <- indexedTask{index: i, task: task}
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		completed, failed := 0, 0
		for result := range resultCh {
			results = append(results, result)

			completed++
			if result.Err != nil {
				failed++
			}
			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan indexedTask, results chan<- Result) {
	for it := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: it.task, Err: err, index: it.index}
			continue
		}

		start := time.Now()
		out, err := p.generator.Generate(ctx, it.task.Job)
		results <- Result{
			Task:    it.task,
			Output:  out,
			Err:     err,
			Elapsed: time.Since(start),
			index:   it.index,
		}
	}
}
