package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func tx(d int, desc string, amount string) model.Transaction {
	return model.Transaction{
		Date:        day(d),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
	}
}

func newTransactional() *TransactionalDetector {
	return NewTransactionalDetector(model.DefaultConfig().Transactional)
}

func TestTransactional_CleanSequence(t *testing.T) {
	d := newTransactional()
	signals, err := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		tx(3, "Invoice 1041", "1250.50"),
		tx(5, "Card payment", "-89.99"),
		tx(9, "Monthly fee", "-12.00"),
	}})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("Plausible sequence must yield no signals, got %v", kinds(signals))
	}
}

func TestTransactional_NilSequenceUnavailable(t *testing.T) {
	d := newTransactional()
	_, err := d.Detect(context.Background(), Input{})
	if !errors.Is(err, model.ErrDetectorUnavailable) {
		t.Errorf("Expected ErrDetectorUnavailable for missing sequence, got %v", err)
	}
}

func TestTransactional_EmptySequenceIsClean(t *testing.T) {
	d := newTransactional()
	signals, err := d.Detect(context.Background(), Input{Transactions: []model.Transaction{}})
	if err != nil {
		t.Fatalf("Empty sequence is data, not a failure: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("Empty sequence yields no signals, got %v", kinds(signals))
	}
}

func TestTransactional_Duplicates(t *testing.T) {
	d := newTransactional()
	line := tx(4, "Transfer to supplier", "-500.00")
	// Four identical copies: three extras, one beyond the tolerated two.
	signals, _ := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		line, line, line, line,
	}})

	s := findSignal(t, signals, "duplicate_transactions")
	if s.Severity != 0.4 { // 0.3 + 0.1*(3-2)
		t.Errorf("Expected severity 0.4, got %f", s.Severity)
	}
	if s.Data["duplicates"] != 3 {
		t.Errorf("Expected 3 duplicates recorded, got %v", s.Data["duplicates"])
	}
}

func TestTransactional_DuplicatesWithinTolerance(t *testing.T) {
	d := newTransactional()
	line := tx(4, "Coffee", "-3.50")
	signals, _ := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		line, line, line, // two extras, tolerated
	}})
	if hasSignal(signals, "duplicate_transactions") {
		t.Error("Duplicates within tolerance must not be flagged")
	}
}

func TestTransactional_Velocity(t *testing.T) {
	d := newTransactional()
	var txs []model.Transaction
	for i := 0; i < 100; i++ { // 100 transactions on a single day
		txs = append(txs, tx(2, "POS payment", "-10.00"))
	}
	signals, _ := d.Detect(context.Background(), Input{Transactions: txs})

	s := findSignal(t, signals, "transaction_velocity")
	if s.Severity != 0.625 { // 100 / (40*4)
		t.Errorf("Expected severity 0.625, got %f", s.Severity)
	}
}

func TestTransactional_ImplausibleFee(t *testing.T) {
	d := newTransactional()
	signals, _ := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		tx(3, "Monthly account fee", "-5000.00"),
		tx(4, "Rent payment", "-5000.00"), // large but not a fee
	}})

	s := findSignal(t, signals, "implausible_fee")
	if s.Severity != 1 { // 0.4 + (5000/500)/10 = 1.4 clamped
		t.Errorf("Expected saturated severity, got %f", s.Severity)
	}
	count := 0
	for _, sig := range signals {
		if sig.Kind == "implausible_fee" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Only fee-described lines may be flagged, got %d", count)
	}
}

func TestTransactional_NonChronologicalOrder(t *testing.T) {
	d := newTransactional()
	signals, _ := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		tx(10, "Invoice", "100.00"),
		tx(4, "Backdated entry", "-100.00"),
		tx(12, "Invoice", "100.00"),
		tx(7, "Backdated entry", "-50.00"),
	}})

	s := findSignal(t, signals, "non_chronological_order")
	if s.Data["inversions"] != 2 {
		t.Errorf("Expected 2 inversions, got %v", s.Data["inversions"])
	}
	if s.Severity != 0.5 { // 0.3 + 0.1*2
		t.Errorf("Expected severity 0.5, got %f", s.Severity)
	}
}

func TestTransactional_UndatedLinesSkippedInOrderCheck(t *testing.T) {
	d := newTransactional()
	undated := model.Transaction{RawDate: "Jan 5th", Description: "Cash", Amount: decimal.RequireFromString("20.00")}
	signals, _ := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		tx(3, "A", "10.00"),
		undated,
		tx(8, "B", "10.00"),
	}})
	if hasSignal(signals, "non_chronological_order") {
		t.Error("Undated lines must not create false inversions")
	}
}

func TestTransactional_RoundAmounts(t *testing.T) {
	d := newTransactional()
	signals, _ := d.Detect(context.Background(), Input{Transactions: []model.Transaction{
		tx(2, "Transfer", "5000.00"),
		tx(3, "Transfer", "-2000.00"),
		tx(4, "Transfer", "10000.00"),
		tx(5, "Transfer", "3000.00"), // four round lines, tolerated two
		tx(6, "Groceries", "-84.31"),
	}})

	s := findSignal(t, signals, "round_amounts")
	if s.Severity-0.4 > 1e-9 || 0.4-s.Severity > 1e-9 { // 0.2 + 0.1*(4-2)
		t.Errorf("Expected severity 0.4, got %f", s.Severity)
	}
}
