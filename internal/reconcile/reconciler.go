// Package reconcile validates the extracted transaction sequence against the
// stated balances. It is exact fixed-precision arithmetic; the perception
// layer is never trusted without this cross-check.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// Reconciler holds the pass/fail tolerances. The looser of the absolute and
// relative bound applies.
type Reconciler struct {
	absTol decimal.Decimal
	relTol decimal.Decimal // fraction of |reported closing|
}

// New creates a reconciler from the configured tolerances.
func New(cfg model.ReconcileConfig) *Reconciler {
	return &Reconciler{
		absTol: decimal.NewFromFloat(cfg.AbsoluteTolerance),
		relTol: decimal.NewFromFloat(cfg.RelativeTolerance),
	}
}

// Reconcile computes closing = opening + sum(amounts) and compares against
// the reported closing, then runs the order-sensitive per-line check where
// running balances are present. Returns model.ErrReconciliationUnavailable
// when either balance is missing; the partial result still carries the
// per-line findings.
func (r *Reconciler) Reconcile(balances model.StatementBalances, txs []model.Transaction) (model.ReconciliationResult, error) {
	result := model.ReconciliationResult{}

	r.checkLines(balances, txs, &result)

	if !balances.Opening.Present || !balances.Closing.Present {
		return result, fmt.Errorf("%w: opening present=%t, closing present=%t",
			model.ErrReconciliationUnavailable, balances.Opening.Present, balances.Closing.Present)
	}

	computed := balances.Opening.Value
	for _, tx := range txs {
		computed = computed.Add(tx.Amount)
	}

	reported := balances.Closing.Value
	discrepancy := computed.Sub(reported)

	result.Available = true
	result.ComputedClosing = computed
	result.ReportedClosing = reported
	result.Discrepancy = discrepancy
	if !reported.IsZero() {
		rel, _ := discrepancy.Abs().Div(reported.Abs()).Float64()
		result.RelativeError = rel
	}

	tolerance := r.absTol
	if rt := r.relTol.Mul(reported.Abs()); rt.GreaterThan(tolerance) {
		tolerance = rt
	}
	result.Pass = discrepancy.Abs().LessThanOrEqual(tolerance)

	return result, nil
}

// checkLines walks the sequence in document order carrying the expected
// running balance forward. A mismatch resynchronizes to the reported value
// so one tampered line counts once, which is what lets this catch localized
// edits that net to zero over the whole statement.
func (r *Reconciler) checkLines(balances model.StatementBalances, txs []model.Transaction, result *model.ReconciliationResult) {
	result.LineMismatchTotal = decimal.Zero

	var carry decimal.Decimal
	known := balances.Opening.Present
	if known {
		carry = balances.Opening.Value
	}

	for _, tx := range txs {
		if known {
			carry = carry.Add(tx.Amount)
		}
		if tx.RunningBalance == nil {
			continue
		}
		if known {
			result.LinesChecked++
			if !carry.Equal(*tx.RunningBalance) {
				result.LineMismatches++
				result.LineMismatchTotal = result.LineMismatchTotal.Add(carry.Sub(*tx.RunningBalance).Abs())
			}
		}
		// resync to the document's own figure
		carry = *tx.RunningBalance
		known = true
	}
}
