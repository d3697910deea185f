// Package detect holds the four fraud analyzers. Each is independently
// runnable over one evidence channel, assumes nothing about the others, and
// emits normalized signals; a failed analyzer degrades its category to
// unknown rather than a silent clean.
package detect

import (
	"context"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// Input bundles the read-only pipeline state detectors draw from. Every
// detector reads only its own channel; nothing here is ever mutated.
type Input struct {
	Document       *model.Document
	Images         [][]byte // rasterized page window, page order
	Profile        *model.BusinessProfile
	Balances       *model.StatementBalances
	Transactions   []model.Transaction
	Summary        *model.StatementSummary
	Reconciliation *model.ReconciliationResult // nil when unavailable
}

// Detector is the uniform contract the aggregator and the worker pool
// depend on. Adding an analyzer means adding an implementation, nothing
// else changes.
type Detector interface {
	Category() model.SignalCategory
	Detect(ctx context.Context, in Input) ([]model.FraudSignal, error)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
