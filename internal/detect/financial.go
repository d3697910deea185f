package detect

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

var thousand = decimal.NewFromInt(1000)

// FinancialDetector turns the reconciliation result and the stated balances
// into signals. Both the whole-statement and the per-line checks land here
// rather than in a category of their own: they share the same arithmetic
// contract.
type FinancialDetector struct{}

// NewFinancialDetector creates the financial analyzer.
func NewFinancialDetector() *FinancialDetector { return &FinancialDetector{} }

// Category returns the financial channel.
func (d *FinancialDetector) Category() model.SignalCategory { return model.CategoryFinancial }

// Detect evaluates the arithmetic evidence. When reconciliation was not
// possible the whole category degrades to unknown.
func (d *FinancialDetector) Detect(ctx context.Context, in Input) ([]model.FraudSignal, error) {
	if in.Reconciliation == nil || !in.Reconciliation.Available {
		return nil, fmt.Errorf("%w: financial: reconciliation unavailable", model.ErrDetectorUnavailable)
	}
	recon := in.Reconciliation

	signals := []model.FraudSignal{}

	if !recon.Pass {
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryFinancial,
			Kind:       "balance_discrepancy",
			Severity:   clamp01(0.5 + recon.RelativeError*5),
			Confidence: 0.95,
			Evidence: []string{fmt.Sprintf(
				"computed closing %s differs from reported %s by %s",
				recon.ComputedClosing, recon.ReportedClosing, recon.Discrepancy)},
			Data: map[string]interface{}{
				"discrepancy":    recon.Discrepancy.String(),
				"relative_error": recon.RelativeError,
				"formula":        "min(0.5 + relative_error*5, 1)",
			},
		})
	}

	if recon.LineMismatches > 0 {
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryFinancial,
			Kind:       "running_balance_mismatch",
			Severity:   clamp01(0.3 + 0.15*float64(recon.LineMismatches)),
			Confidence: 0.9,
			Evidence: []string{fmt.Sprintf(
				"%d of %d running balances do not follow from the prior line (total drift %s)",
				recon.LineMismatches, recon.LinesChecked, recon.LineMismatchTotal)},
			Data: map[string]interface{}{
				"mismatches":     recon.LineMismatches,
				"lines_checked":  recon.LinesChecked,
				"mismatch_total": recon.LineMismatchTotal.String(),
				"formula":        "min(0.3 + 0.15*mismatches, 1)",
			},
		})
	}

	signals = append(signals, d.balancePatterns(in)...)
	signals = append(signals, d.periodConsistency(in)...)

	return signals, nil
}

// balancePatterns flags placeholder-looking balances: the zero/zero pair,
// balance movement with no transactions, and round-thousand stated
// balances.
func (d *FinancialDetector) balancePatterns(in Input) []model.FraudSignal {
	if in.Balances == nil {
		return nil
	}
	var signals []model.FraudSignal

	opening, closing := in.Balances.Opening, in.Balances.Closing
	if opening.Present && closing.Present {
		if opening.Value.IsZero() && closing.Value.IsZero() {
			signals = append(signals, model.FraudSignal{
				Category:   model.CategoryFinancial,
				Kind:       "zero_balances",
				Severity:   0.5,
				Confidence: 0.8,
				Evidence:   []string{"both opening and closing balances are 0.00"},
			})
		}
		if len(in.Transactions) == 0 && !opening.Value.Equal(closing.Value) {
			signals = append(signals, model.FraudSignal{
				Category:   model.CategoryFinancial,
				Kind:       "movement_without_transactions",
				Severity:   0.6,
				Confidence: 0.85,
				Evidence: []string{fmt.Sprintf("balance moved from %s to %s with no transactions listed",
					opening.Value, closing.Value)},
			})
		}

		roundCount := 0
		for _, b := range []decimal.Decimal{opening.Value, closing.Value} {
			if !b.IsZero() && b.Mod(thousand).IsZero() {
				roundCount++
			}
		}
		if roundCount == 2 {
			signals = append(signals, model.FraudSignal{
				Category:   model.CategoryFinancial,
				Kind:       "round_balances",
				Severity:   0.3,
				Confidence: 0.6,
				Evidence: []string{fmt.Sprintf("opening %s and closing %s are both exact thousands",
					opening.Value, closing.Value)},
			})
		}
	}

	if in.Summary != nil && in.Summary.ContinuityBreaks > 0 {
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryFinancial,
			Kind:       "page_continuity_break",
			Severity:   clamp01(0.3 * float64(in.Summary.ContinuityBreaks)),
			Confidence: 0.8,
			Evidence: []string{fmt.Sprintf("%d page-boundary balance discontinuities",
				in.Summary.ContinuityBreaks)},
		})
	}

	return signals
}

// periodConsistency compares the stated statement period against the actual
// transaction date range.
func (d *FinancialDetector) periodConsistency(in Input) []model.FraudSignal {
	if in.Profile == nil || !in.Profile.PeriodStart.Present || !in.Profile.PeriodEnd.Present {
		return nil
	}

	start, end := in.Profile.PeriodStart.Value, in.Profile.PeriodEnd.Value
	outside := 0
	for _, tx := range in.Transactions {
		if tx.Date.IsZero() {
			continue
		}
		if tx.Date.Before(start) || tx.Date.After(end) {
			outside++
		}
	}
	if outside == 0 {
		return nil
	}

	return []model.FraudSignal{{
		Category:   model.CategoryFinancial,
		Kind:       "period_inconsistency",
		Severity:   clamp01(0.3 + 0.1*float64(outside)),
		Confidence: 0.85,
		Evidence: []string{fmt.Sprintf(
			"%d transaction(s) dated outside the stated period %s to %s",
			outside, start.Format("2006-01-02"), end.Format("2006-01-02"))},
		Data: map[string]interface{}{
			"outside_count": outside,
			"formula":       "min(0.3 + 0.1*outside, 1)",
		},
	}}
}
