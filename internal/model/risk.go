package model

import "github.com/shopspring/decimal"

// ReconciliationResult is the arithmetic cross-check of the extracted
// transaction sequence against the reported balances.
type ReconciliationResult struct {
	Available bool `json:"available"` // false when balances or transactions were missing

	ComputedClosing decimal.Decimal `json:"computed_closing"`
	ReportedClosing decimal.Decimal `json:"reported_closing"`
	Discrepancy     decimal.Decimal `json:"discrepancy"`          // computed - reported
	RelativeError   float64         `json:"relative_error"`       // |discrepancy| / |reported|
	Pass            bool            `json:"pass"`

	// Per-line running-balance check, order-sensitive. Catches localized
	// tampering that nets to zero over the whole statement.
	LinesChecked      int             `json:"lines_checked"`
	LineMismatches    int             `json:"line_mismatches"`
	LineMismatchTotal decimal.Decimal `json:"line_mismatch_total"` // sum of |expected - reported|
}

// RiskLevel is the four-level triage label.
type RiskLevel string

const (
	RiskMinimal RiskLevel = "minimal"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// CategoryScore is one evidence channel's sub-score. Unknown means the
// detector for the channel failed; it is never reported as a clean zero.
type CategoryScore struct {
	Score       float64 `json:"score"` // 0..1, meaningless when Unknown
	Unknown     bool    `json:"unknown"`
	SignalCount int     `json:"signal_count"`
}

// RiskAssessment is the final, immutable output of the aggregator.
type RiskAssessment struct {
	Score      float64                          `json:"score"` // 0..1 composite
	Level      RiskLevel                        `json:"level"`
	SubScores  map[SignalCategory]CategoryScore `json:"sub_scores"`
	Signals    []FraudSignal                    `json:"signals"`
	Confidence float64                          `json:"confidence"` // discounted by unknown channels
	Caveats    []string                         `json:"caveats,omitempty"`

	Reconciliation ReconciliationResult `json:"reconciliation"`
}
