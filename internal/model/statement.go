package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field is one independently extracted value. Absence is explicit: a missing
// account number is {Present: false}, never an empty string passed off as
// success.
type Field[T any] struct {
	Value      T       `json:"value,omitempty"`
	Present    bool    `json:"present"`
	Confidence float64 `json:"confidence"` // 0..1, extraction confidence
}

// FieldOf builds a present field with the given confidence.
func FieldOf[T any](v T, confidence float64) Field[T] {
	return Field[T]{Value: v, Present: true, Confidence: confidence}
}

// Absent returns an explicitly missing field.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// BusinessProfile holds the entity details extracted from the statement.
// Every field carries its own presence and confidence.
type BusinessProfile struct {
	BusinessName       Field[string]    `json:"business_name"`
	Address            Field[string]    `json:"address"`
	AccountNumber      Field[string]    `json:"account_number"` // last 4 digits only
	Institution        Field[string]    `json:"institution"`
	RegistrationNumber Field[string]    `json:"registration_number"`
	PeriodStart        Field[time.Time] `json:"period_start"`
	PeriodEnd          Field[time.Time] `json:"period_end"`
	LogoPresent        Field[bool]      `json:"logo_present"`
}

// Transaction is one statement line. Sign convention is fixed end to end:
// credits positive, debits negative. Sequence order equals statement order
// and is never re-sorted by later stages.
type Transaction struct {
	Date           time.Time        `json:"date"`
	RawDate        string           `json:"raw_date,omitempty"` // kept when parsing failed
	Description    string           `json:"description"`
	Amount         decimal.Decimal  `json:"amount"`
	RunningBalance *decimal.Decimal `json:"running_balance,omitempty"` // as reported, optional
	Page           int              `json:"page"`                      // 0-based source page
}

// StatementBalances are the opening and closing balances as reported by the
// document, not computed. Either side may be absent.
type StatementBalances struct {
	Opening Field[decimal.Decimal] `json:"opening"`
	Closing Field[decimal.Decimal] `json:"closing"`
}

// StatementSummary is derived bookkeeping reported alongside the extraction.
type StatementSummary struct {
	TransactionCount int             `json:"transaction_count"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"` // absolute value
	ContinuityBreaks int             `json:"continuity_breaks"` // page-boundary balance mismatches
}

// Summarize computes the derived totals for a transaction sequence.
func Summarize(txs []Transaction) StatementSummary {
	s := StatementSummary{TransactionCount: len(txs)}
	for _, tx := range txs {
		if tx.Amount.IsPositive() {
			s.TotalDeposits = s.TotalDeposits.Add(tx.Amount)
		} else {
			s.TotalWithdrawals = s.TotalWithdrawals.Add(tx.Amount.Abs())
		}
	}
	return s
}
