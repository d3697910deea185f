package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balances(opening, closing string) *model.StatementBalances {
	return &model.StatementBalances{
		Opening: model.FieldOf(money(opening), 0.95),
		Closing: model.FieldOf(money(closing), 0.95),
	}
}

func passingRecon() *model.ReconciliationResult {
	return &model.ReconciliationResult{Available: true, Pass: true}
}

func TestFinancial_ReconciliationUnavailable(t *testing.T) {
	d := NewFinancialDetector()

	_, err := d.Detect(context.Background(), Input{})
	if !errors.Is(err, model.ErrDetectorUnavailable) {
		t.Errorf("Nil reconciliation must degrade the channel, got %v", err)
	}

	_, err = d.Detect(context.Background(), Input{Reconciliation: &model.ReconciliationResult{Available: false}})
	if !errors.Is(err, model.ErrDetectorUnavailable) {
		t.Errorf("Unavailable reconciliation must degrade the channel, got %v", err)
	}
}

func TestFinancial_CleanStatement(t *testing.T) {
	d := NewFinancialDetector()
	signals, err := d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("1000.00", "1300.00"),
		Transactions:   []model.Transaction{tx(5, "Deposit", "500.00"), tx(12, "Payment", "-200.00")},
		Summary:        &model.StatementSummary{TransactionCount: 2},
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("Clean statement must yield no signals, got %v", kinds(signals))
	}
}

func TestFinancial_BalanceDiscrepancy(t *testing.T) {
	d := NewFinancialDetector()
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: &model.ReconciliationResult{
			Available:       true,
			Pass:            false,
			ComputedClosing: money("1300.00"),
			ReportedClosing: money("1450.00"),
			Discrepancy:     money("-150.00"),
			RelativeError:   0.1034,
		},
		Balances: balances("1000.00", "1450.00"),
	})

	s := findSignal(t, signals, "balance_discrepancy")
	if s.Severity < 0.5 {
		t.Errorf("A failed reconciliation starts at 0.5 severity, got %f", s.Severity)
	}
	if s.Data["formula"] == "" {
		t.Error("The severity formula must be disclosed")
	}
}

func TestFinancial_RunningBalanceMismatches(t *testing.T) {
	d := NewFinancialDetector()
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: &model.ReconciliationResult{
			Available:         true,
			Pass:              true, // whole-statement sum still closes
			LinesChecked:      10,
			LineMismatches:    2,
			LineMismatchTotal: money("200.00"),
		},
		Balances: balances("1000.00", "1300.00"),
	})

	s := findSignal(t, signals, "running_balance_mismatch")
	if s.Severity != 0.6 { // 0.3 + 0.15*2
		t.Errorf("Expected severity 0.6, got %f", s.Severity)
	}
}

func TestFinancial_ZeroBalances(t *testing.T) {
	d := NewFinancialDetector()
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("0.00", "0.00"),
	})

	if s := findSignal(t, signals, "zero_balances"); s.Severity != 0.5 {
		t.Errorf("Expected severity 0.5, got %f", s.Severity)
	}
}

func TestFinancial_MovementWithoutTransactions(t *testing.T) {
	d := NewFinancialDetector()
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("1000.00", "4200.00"),
		Transactions:   []model.Transaction{},
	})

	if s := findSignal(t, signals, "movement_without_transactions"); s.Severity != 0.6 {
		t.Errorf("Expected severity 0.6, got %f", s.Severity)
	}
}

func TestFinancial_RoundBalances(t *testing.T) {
	d := NewFinancialDetector()
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("5000.00", "8000.00"),
		Transactions:   []model.Transaction{tx(5, "Transfer", "3000.00")},
	})
	findSignal(t, signals, "round_balances")

	// One round side alone is not a pattern.
	signals, _ = d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("5000.00", "8123.45"),
		Transactions:   []model.Transaction{tx(5, "Transfer", "3123.45")},
	})
	if hasSignal(signals, "round_balances") {
		t.Error("A single round balance must not be flagged")
	}
}

func TestFinancial_PageContinuityBreaks(t *testing.T) {
	d := NewFinancialDetector()
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("1000.00", "1300.00"),
		Summary:        &model.StatementSummary{ContinuityBreaks: 2},
	})

	if s := findSignal(t, signals, "page_continuity_break"); s.Severity != 0.6 {
		t.Errorf("Expected severity 0.6 for 2 breaks, got %f", s.Severity)
	}
}

func TestFinancial_PeriodInconsistency(t *testing.T) {
	d := NewFinancialDetector()
	profile := &model.BusinessProfile{
		PeriodStart: model.FieldOf(day(1), 0.9),
		PeriodEnd:   model.FieldOf(day(31), 0.9),
	}
	signals, _ := d.Detect(context.Background(), Input{
		Reconciliation: passingRecon(),
		Balances:       balances("1000.00", "1300.00"),
		Profile:        profile,
		Transactions: []model.Transaction{
			tx(5, "Inside", "100.00"),
			{Date: day(31).AddDate(0, 1, 0), Description: "Outside", Amount: money("200.00")},
		},
	})

	s := findSignal(t, signals, "period_inconsistency")
	if s.Data["outside_count"] != 1 {
		t.Errorf("Expected 1 transaction outside the period, got %v", s.Data["outside_count"])
	}
}
