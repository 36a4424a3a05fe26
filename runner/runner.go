// Package runner executes conversation turns with bounded concurrency.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweetpotato0/tripflow/agent"
)

// Runner executes turns against an agent.
type Runner interface {
	// RunTurn executes a single turn on a thread.
	RunTurn(ctx context.Context, ag *agent.Agent, threadID, input string) (*agent.TurnResult, error)
}

// runner is the default implementation of Runner
type runner struct {
	maxConcurrency int
	semaphore      chan struct{}
}

// New creates a new runner
func New(maxConcurrency int) Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = 10 // Default concurrency
	}
	return &runner{
		maxConcurrency: maxConcurrency,
		semaphore:      make(chan struct{}, maxConcurrency),
	}
}

// RunTurn executes a single turn, waiting for a concurrency slot first.
func (r *runner) RunTurn(ctx context.Context, ag *agent.Agent, threadID, input string) (*agent.TurnResult, error) {
	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return ag.RunTurn(ctx, threadID, input)
}

// ParallelRunner executes turns for many threads in parallel
type ParallelRunner struct {
	runner Runner
}

// NewParallelRunner creates a new parallel runner
func NewParallelRunner(maxConcurrency int) *ParallelRunner {
	return &ParallelRunner{
		runner: New(maxConcurrency),
	}
}

// Task represents one turn to be executed
type Task struct {
	ThreadID string
	Agent    *agent.Agent
	Input    string
}

// Result represents the result of a task execution
type Result struct {
	ThreadID string
	Turn     *agent.TurnResult
	Error    error
}

// RunParallel executes the tasks concurrently and returns results in
// task order.
func (pr *ParallelRunner) RunParallel(ctx context.Context, tasks []*Task) []*Result {
	results := make([]*Result, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(index int, t *Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = &Result{
						ThreadID: t.ThreadID,
						Error:    fmt.Errorf("panic in turn for thread %s: %v", t.ThreadID, r),
					}
				}
			}()

			turn, err := pr.runner.RunTurn(ctx, t.Agent, t.ThreadID, t.Input)
			results[index] = &Result{
				ThreadID: t.ThreadID,
				Turn:     turn,
				Error:    err,
			}
		}(i, task)
	}

	wg.Wait()
	return results
}
