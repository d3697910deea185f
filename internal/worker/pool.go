// Package worker runs the fraud detectors concurrently. Detectors share the
// read-only document bundle and never touch each other's state; the pool
// only ferries their signal lists back to the single aggregation point.
package worker

import (
	"context"
	"sync"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// Task is one analyzer invocation.
type Task struct {
	Category model.SignalCategory
	Run      func(ctx context.Context) ([]model.FraudSignal, error)
}

// Outcome is one analyzer's result. Err carries the detector failure that
// degrades the category to unknown; it never aborts the other tasks.
type Outcome struct {
	Category model.SignalCategory
	Signals  []model.FraudSignal
	Err      error
}

// Pool bounds detector concurrency.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all tasks and returns one outcome per task. Cancellation of
// ctx stops dispatching new tasks; already-running ones see the cancelled
// context through their own calls.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				task := tasks[idx]
				if err := ctx.Err(); err != nil {
					outcomes[idx] = Outcome{Category: task.Category, Err: err}
					continue
				}
				signals, err := task.Run(ctx)
				outcomes[idx] = Outcome{Category: task.Category, Signals: signals, Err: err}
			}
		}()
	}

	for i := range tasks {
		select {
		case jobs <- i:
		case <-ctx.Done():
			outcomes[i] = Outcome{Category: tasks[i].Category, Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}
