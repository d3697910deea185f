package model

import "time"

// Status is the terminal state of a pipeline run. Every run, including a
// failed one, ends in exactly one status with a well-formed report.
type Status string

const (
	// StatusCompleted means a full assessment with a risk score was produced.
	StatusCompleted Status = "completed"
	// StatusNotApplicable means classification decided the document is not a
	// bank statement; no extraction or scoring ran.
	StatusNotApplicable Status = "not_applicable"
	// StatusInconclusive means classification itself was unavailable.
	StatusInconclusive Status = "inconclusive"
	// StatusInsufficientData means extraction produced no usable structured
	// data; the classification verdict is still reported, the score is not.
	StatusInsufficientData Status = "insufficient_data"
)

// Report is the single JSON artifact persisted per run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"` // populated on non-completed statuses

	Document       Document                         `json:"document"`
	Classification *ClassificationResult            `json:"classification,omitempty"`
	Profile        *BusinessProfile                 `json:"business_profile,omitempty"`
	Balances       *StatementBalances               `json:"balances,omitempty"`
	Transactions   []Transaction                    `json:"transactions,omitempty"`
	Summary        *StatementSummary                `json:"summary,omitempty"`
	Signals        map[SignalCategory][]FraudSignal `json:"signals,omitempty"`
	Risk           *RiskAssessment                  `json:"risk,omitempty"`
}
