// Package score combines per-channel fraud signals into a single bounded
// risk assessment. The aggregation is deliberately transparent: every
// sub-score, weight, and caveat that went into the composite is preserved
// on the assessment so a reviewer can re-derive the number by hand.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/worker"
)

// Aggregator turns detector outcomes into a risk assessment.
type Aggregator struct {
	cfg model.ScoreConfig
}

// New creates an aggregator with the given weights and thresholds.
func New(cfg model.ScoreConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate computes per-category sub-scores and the weighted composite.
//
// Each category's sub-score is the noisy-OR of its signal severities:
// 1 - prod(1 - sev_i). Independent pieces of evidence compound instead of
// averaging each other away, and the result stays in [0, 1].
//
// A failed detector marks its category unknown. Unknown categories are
// excluded from the composite (the remaining weights are renormalized)
// and discount the assessment's confidence; they are never counted as a
// clean zero.
func (a *Aggregator) Aggregate(outcomes []worker.Outcome, recon model.ReconciliationResult) model.RiskAssessment {
	subScores := make(map[model.SignalCategory]model.CategoryScore, len(outcomes))
	var signals []model.FraudSignal
	var caveats []string

	for _, o := range outcomes {
		if o.Err != nil {
			subScores[o.Category] = model.CategoryScore{Unknown: true}
			caveats = append(caveats, fmt.Sprintf("%s analysis unavailable: %v", o.Category, o.Err))
			continue
		}
		subScores[o.Category] = model.CategoryScore{
			Score:       noisyOR(o.Signals),
			SignalCount: len(o.Signals),
		}
		signals = append(signals, o.Signals...)
	}

	sortSignals(signals)

	composite, confidence := a.composite(subScores)
	if confidence == 0 {
		caveats = append(caveats, "no evidence channel produced a score")
	}

	return model.RiskAssessment{
		Score:          composite,
		Level:          a.level(composite),
		SubScores:      subScores,
		Signals:        signals,
		Confidence:     confidence,
		Caveats:        caveats,
		Reconciliation: recon,
	}
}

// composite is the weighted average of the known sub-scores, with weights
// renormalized over the known categories. Confidence is the fraction of
// total configured weight backed by a known channel.
func (a *Aggregator) composite(subScores map[model.SignalCategory]model.CategoryScore) (float64, float64) {
	var weighted, knownWeight, totalWeight float64
	for _, c := range model.Categories {
		w := a.cfg.Weight(c)
		totalWeight += w
		sub, ok := subScores[c]
		if !ok || sub.Unknown {
			continue
		}
		weighted += w * sub.Score
		knownWeight += w
	}
	if knownWeight == 0 || totalWeight == 0 {
		return 0, 0
	}
	return clamp01(weighted / knownWeight), knownWeight / totalWeight
}

func (a *Aggregator) level(score float64) model.RiskLevel {
	switch {
	case score < a.cfg.LowThreshold:
		return model.RiskMinimal
	case score < a.cfg.MediumThreshold:
		return model.RiskLow
	case score < a.cfg.HighThreshold:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// noisyOR folds signal severities into 1 - prod(1 - sev_i). A signal's
// confidence attenuates its severity when the detector reported one.
func noisyOR(signals []model.FraudSignal) float64 {
	product := 1.0
	for _, s := range signals {
		product *= 1 - effectiveSeverity(s)
	}
	return clamp01(1 - product)
}

func effectiveSeverity(s model.FraudSignal) float64 {
	sev := clamp01(s.Severity)
	if s.Confidence > 0 && s.Confidence < 1 {
		sev *= s.Confidence
	}
	return sev
}

// sortSignals orders signals by severity descending, then category order,
// so the most actionable evidence leads the report.
func sortSignals(signals []model.FraudSignal) {
	rank := make(map[model.SignalCategory]int, len(model.Categories))
	for i, c := range model.Categories {
		rank[c] = i
	}
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Severity != signals[j].Severity {
			return signals[i].Severity > signals[j].Severity
		}
		return rank[signals[i].Category] < rank[signals[j].Category]
	})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
