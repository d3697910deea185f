package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// feeWords mark lines whose description claims to be a bank charge.
var feeWords = []string{"fee", "charge", "service charge", "commission"}

// TransactionalDetector analyzes the transaction sequence itself, in
// document order. It never re-sorts; chronology findings depend on the
// original ordering.
type TransactionalDetector struct {
	cfg model.TransactionalConfig
}

// NewTransactionalDetector creates the transactional analyzer.
func NewTransactionalDetector(cfg model.TransactionalConfig) *TransactionalDetector {
	return &TransactionalDetector{cfg: cfg}
}

// Category returns the transactional channel.
func (d *TransactionalDetector) Category() model.SignalCategory { return model.CategoryTransactional }

// Detect runs the sequence checks. An empty sequence is not a failure: it
// simply yields no signals (the financial channel covers balances that
// moved without transactions).
func (d *TransactionalDetector) Detect(ctx context.Context, in Input) ([]model.FraudSignal, error) {
	if in.Transactions == nil {
		return nil, fmt.Errorf("%w: transactional: no transaction sequence", model.ErrDetectorUnavailable)
	}

	signals := []model.FraudSignal{}
	signals = append(signals, d.duplicates(in.Transactions)...)
	signals = append(signals, d.velocity(in.Transactions)...)
	signals = append(signals, d.feeMagnitudes(in.Transactions)...)
	signals = append(signals, d.chronology(in.Transactions)...)
	signals = append(signals, d.roundAmounts(in.Transactions)...)
	return signals, nil
}

// duplicates flags identical (date, amount, description) triples beyond the
// plausible count. The sequence itself is left untouched: duplicates are
// preserved, only flagged.
func (d *TransactionalDetector) duplicates(txs []model.Transaction) []model.FraudSignal {
	counts := map[string]int{}
	for _, tx := range txs {
		key := tx.Date.Format("2006-01-02") + "|" + tx.Amount.String() + "|" + tx.Description
		counts[key]++
	}

	extra := 0
	examples := []string{}
	for key, n := range counts {
		if n > 1 {
			extra += n - 1
			if len(examples) < 3 {
				examples = append(examples, fmt.Sprintf("%s (x%d)", key, n))
			}
		}
	}
	if extra <= d.cfg.MaxDuplicates {
		return nil
	}

	return []model.FraudSignal{{
		Category:   model.CategoryTransactional,
		Kind:       "duplicate_transactions",
		Severity:   clamp01(0.3 + 0.1*float64(extra-d.cfg.MaxDuplicates)),
		Confidence: 0.9,
		Evidence: append([]string{fmt.Sprintf("%d duplicated lines beyond the tolerated %d",
			extra, d.cfg.MaxDuplicates)}, examples...),
		Data: map[string]interface{}{
			"duplicates": extra,
			"tolerated":  d.cfg.MaxDuplicates,
			"formula":    "min(0.3 + 0.1*(duplicates-tolerated), 1)",
		},
	}}
}

// velocity flags implausibly many transactions per day over the observed
// date range.
func (d *TransactionalDetector) velocity(txs []model.Transaction) []model.FraudSignal {
	var first, last *model.Transaction
	dated := 0
	for i := range txs {
		if txs[i].Date.IsZero() {
			continue
		}
		dated++
		if first == nil || txs[i].Date.Before(first.Date) {
			first = &txs[i]
		}
		if last == nil || txs[i].Date.After(last.Date) {
			last = &txs[i]
		}
	}
	if dated < 2 {
		return nil
	}

	days := last.Date.Sub(first.Date).Hours()/24 + 1
	perDay := float64(dated) / days
	if perDay <= d.cfg.MaxPerDay {
		return nil
	}

	return []model.FraudSignal{{
		Category:   model.CategoryTransactional,
		Kind:       "transaction_velocity",
		Severity:   clamp01(perDay / (d.cfg.MaxPerDay * 4)),
		Confidence: 0.75,
		Evidence: []string{fmt.Sprintf("%.1f transactions per day over %.0f day(s), ceiling %.0f",
			perDay, days, d.cfg.MaxPerDay)},
		Data: map[string]interface{}{
			"per_day": perDay,
			"ceiling": d.cfg.MaxPerDay,
			"formula": "min(per_day / (ceiling*4), 1)",
		},
	}}
}

// feeMagnitudes flags lines described as fees whose magnitude is far beyond
// any plausible bank charge.
func (d *TransactionalDetector) feeMagnitudes(txs []model.Transaction) []model.FraudSignal {
	ceiling := decimal.NewFromFloat(d.cfg.FeeCeiling)
	var signals []model.FraudSignal
	for _, tx := range txs {
		if !isFee(tx.Description) || tx.Amount.Abs().LessThanOrEqual(ceiling) {
			continue
		}
		ratio, _ := tx.Amount.Abs().Div(ceiling).Float64()
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryTransactional,
			Kind:       "implausible_fee",
			Severity:   clamp01(0.4 + ratio/10),
			Confidence: 0.7,
			Evidence: []string{fmt.Sprintf("%q for %s exceeds the plausible fee ceiling %s",
				tx.Description, tx.Amount, ceiling)},
			Data: map[string]interface{}{
				"amount":  tx.Amount.String(),
				"ceiling": ceiling.String(),
				"formula": "min(0.4 + (|amount|/ceiling)/10, 1)",
			},
		})
	}
	return signals
}

// chronology counts backwards date steps in document order.
func (d *TransactionalDetector) chronology(txs []model.Transaction) []model.FraudSignal {
	inversions := 0
	var prev *model.Transaction
	for i := range txs {
		if txs[i].Date.IsZero() {
			continue
		}
		if prev != nil && txs[i].Date.Before(prev.Date) {
			inversions++
		}
		prev = &txs[i]
	}
	if inversions == 0 {
		return nil
	}

	return []model.FraudSignal{{
		Category:   model.CategoryTransactional,
		Kind:       "non_chronological_order",
		Severity:   clamp01(0.3 + 0.1*float64(inversions)),
		Confidence: 0.85,
		Evidence:   []string{fmt.Sprintf("%d transaction(s) dated earlier than the preceding line", inversions)},
		Data: map[string]interface{}{
			"inversions": inversions,
			"formula":    "min(0.3 + 0.1*inversions, 1)",
		},
	}}
}

// roundAmounts flags multiple large exact-thousand transactions, a common
// fabrication tell.
func (d *TransactionalDetector) roundAmounts(txs []model.Transaction) []model.FraudSignal {
	count := 0
	for _, tx := range txs {
		abs := tx.Amount.Abs()
		if abs.GreaterThanOrEqual(thousand) && abs.Mod(thousand).IsZero() {
			count++
		}
	}
	if count <= d.cfg.RoundThreshold {
		return nil
	}

	return []model.FraudSignal{{
		Category:   model.CategoryTransactional,
		Kind:       "round_amounts",
		Severity:   clamp01(0.2 + 0.1*float64(count-d.cfg.RoundThreshold)),
		Confidence: 0.65,
		Evidence: []string{fmt.Sprintf("%d large exact-thousand transactions (tolerated %d)",
			count, d.cfg.RoundThreshold)},
		Data: map[string]interface{}{
			"round_count": count,
			"tolerated":   d.cfg.RoundThreshold,
			"formula":     "min(0.2 + 0.1*(count-tolerated), 1)",
		},
	}}
}

func isFee(description string) bool {
	lower := strings.ToLower(description)
	for _, w := range feeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
