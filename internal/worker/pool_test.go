package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

func TestPool_RunsAllTasks(t *testing.T) {
	var ran atomic.Int32
	tasks := []Task{}
	for _, c := range model.Categories {
		cat := c
		tasks = append(tasks, Task{
			Category: cat,
			Run: func(ctx context.Context) ([]model.FraudSignal, error) {
				ran.Add(1)
				return []model.FraudSignal{{Category: cat, Severity: 0.5}}, nil
			},
		})
	}

	outcomes := NewPool(2).Run(context.Background(), tasks)

	if ran.Load() != 4 {
		t.Errorf("Expected 4 task executions, got %d", ran.Load())
	}
	if len(outcomes) != 4 {
		t.Fatalf("Expected 4 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Category != tasks[i].Category {
			t.Errorf("Outcome %d category %s, want %s", i, o.Category, tasks[i].Category)
		}
		if o.Err != nil || len(o.Signals) != 1 {
			t.Errorf("Outcome %d: unexpected err=%v signals=%d", i, o.Err, len(o.Signals))
		}
	}
}

func TestPool_FailureIsolated(t *testing.T) {
	boom := errors.New("analyzer broke")
	tasks := []Task{
		{Category: model.CategoryVisual, Run: func(ctx context.Context) ([]model.FraudSignal, error) {
			return nil, boom
		}},
		{Category: model.CategoryStructural, Run: func(ctx context.Context) ([]model.FraudSignal, error) {
			return []model.FraudSignal{}, nil
		}},
	}

	outcomes := NewPool(2).Run(context.Background(), tasks)

	if !errors.Is(outcomes[0].Err, boom) {
		t.Errorf("Expected first outcome to carry the failure, got %v", outcomes[0].Err)
	}
	if outcomes[1].Err != nil {
		t.Errorf("Second task must be unaffected, got %v", outcomes[1].Err)
	}
}

func TestPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{
		{Category: model.CategoryVisual, Run: func(ctx context.Context) ([]model.FraudSignal, error) {
			return []model.FraudSignal{{Severity: 1}}, nil
		}},
	}

	outcomes := NewPool(1).Run(ctx, tasks)
	if outcomes[0].Err == nil {
		t.Error("Expected a context error for cancelled run")
	}
	if len(outcomes[0].Signals) != 0 {
		t.Error("Cancelled task must not produce signals")
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	p := NewPool(0)
	if p.workers != 1 {
		t.Errorf("expected 1 worker, got %d", p.workers)
	}
}
