package score

import (
	"errors"
	"math"
	"testing"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/worker"
)

func testConfig() model.ScoreConfig {
	return model.DefaultConfig().Score
}

func cleanOutcomes() []worker.Outcome {
	outcomes := make([]worker.Outcome, 0, len(model.Categories))
	for _, c := range model.Categories {
		outcomes = append(outcomes, worker.Outcome{Category: c, Signals: []model.FraudSignal{}})
	}
	return outcomes
}

func TestAggregate_CleanDocument(t *testing.T) {
	a := New(testConfig())
	assessment := a.Aggregate(cleanOutcomes(), model.ReconciliationResult{Available: true, Pass: true})

	if assessment.Score != 0 {
		t.Errorf("Clean document should score 0, got %f", assessment.Score)
	}
	if assessment.Level != model.RiskMinimal {
		t.Errorf("Expected minimal risk, got %s", assessment.Level)
	}
	if assessment.Confidence != 1 {
		t.Errorf("All channels known, confidence should be 1, got %f", assessment.Confidence)
	}
	if len(assessment.SubScores) != 4 {
		t.Errorf("Expected 4 sub-scores, got %d", len(assessment.SubScores))
	}
	for c, sub := range assessment.SubScores {
		if sub.Unknown {
			t.Errorf("Category %s should not be unknown", c)
		}
	}
}

func TestAggregate_NoisyORCompounds(t *testing.T) {
	a := New(testConfig())
	outcomes := cleanOutcomes()
	outcomes[2] = worker.Outcome{ // financial
		Category: model.CategoryFinancial,
		Signals: []model.FraudSignal{
			{Category: model.CategoryFinancial, Kind: "balance_discrepancy", Severity: 0.5},
			{Category: model.CategoryFinancial, Kind: "zero_balances", Severity: 0.5},
		},
	}

	assessment := a.Aggregate(outcomes, model.ReconciliationResult{})

	// 1 - (1-0.5)(1-0.5) = 0.75, strictly above either signal alone.
	sub := assessment.SubScores[model.CategoryFinancial]
	if math.Abs(sub.Score-0.75) > 1e-9 {
		t.Errorf("Expected financial sub-score 0.75, got %f", sub.Score)
	}
	if sub.SignalCount != 2 {
		t.Errorf("Expected 2 signals counted, got %d", sub.SignalCount)
	}
	// Composite = 0.35 * 0.75 with the other channels clean.
	if math.Abs(assessment.Score-0.2625) > 1e-9 {
		t.Errorf("Expected composite 0.2625, got %f", assessment.Score)
	}
	if assessment.Level != model.RiskLow {
		t.Errorf("Expected low risk, got %s", assessment.Level)
	}
}

func TestAggregate_MoreSignalsNeverLowerScore(t *testing.T) {
	a := New(testConfig())

	base := cleanOutcomes()
	base[1] = worker.Outcome{
		Category: model.CategoryStructural,
		Signals:  []model.FraudSignal{{Category: model.CategoryStructural, Severity: 0.4}},
	}
	one := a.Aggregate(base, model.ReconciliationResult{}).Score

	more := cleanOutcomes()
	more[1] = worker.Outcome{
		Category: model.CategoryStructural,
		Signals: []model.FraudSignal{
			{Category: model.CategoryStructural, Severity: 0.4},
			{Category: model.CategoryStructural, Severity: 0.3},
		},
	}
	two := a.Aggregate(more, model.ReconciliationResult{}).Score

	if two <= one {
		t.Errorf("Adding evidence must not lower the score: one=%f two=%f", one, two)
	}
}

func TestAggregate_ScoreBounded(t *testing.T) {
	a := New(testConfig())
	outcomes := cleanOutcomes()
	for i, c := range model.Categories {
		signals := make([]model.FraudSignal, 10)
		for j := range signals {
			signals[j] = model.FraudSignal{Category: c, Severity: 1.5} // out-of-range input
		}
		outcomes[i] = worker.Outcome{Category: c, Signals: signals}
	}

	assessment := a.Aggregate(outcomes, model.ReconciliationResult{})
	if assessment.Score < 0 || assessment.Score > 1 {
		t.Errorf("Composite must stay in [0,1], got %f", assessment.Score)
	}
	if assessment.Level != model.RiskHigh {
		t.Errorf("Saturated evidence should be high risk, got %s", assessment.Level)
	}
}

func TestAggregate_UnknownChannelDiscountsConfidence(t *testing.T) {
	a := New(testConfig())
	outcomes := cleanOutcomes()
	outcomes[0] = worker.Outcome{
		Category: model.CategoryVisual,
		Err:      errors.New("perception timeout"),
	}

	assessment := a.Aggregate(outcomes, model.ReconciliationResult{})

	sub := assessment.SubScores[model.CategoryVisual]
	if !sub.Unknown {
		t.Fatal("Failed detector must mark its category unknown")
	}
	// Visual weighs 0.15 of 1.0 total.
	if math.Abs(assessment.Confidence-0.85) > 1e-9 {
		t.Errorf("Expected confidence 0.85, got %f", assessment.Confidence)
	}
	if len(assessment.Caveats) == 0 {
		t.Error("Unknown channel must be surfaced as a caveat")
	}
	if assessment.Score != 0 {
		t.Errorf("Unknown channel must not contribute to the composite, got %f", assessment.Score)
	}
}

func TestAggregate_UnknownNotCountedAsCleanZero(t *testing.T) {
	a := New(testConfig())

	// Financial flagged at 0.6; visual unknown. If unknown were averaged as
	// zero the composite would be diluted; renormalization keeps it at the
	// weighted mean over the known channels only.
	outcomes := cleanOutcomes()
	outcomes[0] = worker.Outcome{Category: model.CategoryVisual, Err: errors.New("down")}
	outcomes[2] = worker.Outcome{
		Category: model.CategoryFinancial,
		Signals:  []model.FraudSignal{{Category: model.CategoryFinancial, Severity: 0.6}},
	}

	assessment := a.Aggregate(outcomes, model.ReconciliationResult{})

	// 0.35*0.6 / (0.25+0.35+0.25)
	want := 0.35 * 0.6 / 0.85
	if math.Abs(assessment.Score-want) > 1e-9 {
		t.Errorf("Expected renormalized composite %f, got %f", want, assessment.Score)
	}
}

func TestAggregate_AllChannelsUnknown(t *testing.T) {
	a := New(testConfig())
	outcomes := make([]worker.Outcome, 0, 4)
	for _, c := range model.Categories {
		outcomes = append(outcomes, worker.Outcome{Category: c, Err: errors.New("down")})
	}

	assessment := a.Aggregate(outcomes, model.ReconciliationResult{})
	if assessment.Confidence != 0 {
		t.Errorf("No known channels means zero confidence, got %f", assessment.Confidence)
	}
	if assessment.Score != 0 {
		t.Errorf("No evidence, no score: got %f", assessment.Score)
	}
	if len(assessment.Caveats) < 5 { // 4 channel caveats + the no-evidence one
		t.Errorf("Expected caveats for every channel plus the summary, got %v", assessment.Caveats)
	}
}

func TestAggregate_LevelThresholds(t *testing.T) {
	a := New(testConfig())
	tests := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0.0, model.RiskMinimal},
		{0.24, model.RiskMinimal},
		{0.25, model.RiskLow},
		{0.49, model.RiskLow},
		{0.5, model.RiskMedium},
		{0.74, model.RiskMedium},
		{0.75, model.RiskHigh},
		{1.0, model.RiskHigh},
	}
	for _, tt := range tests {
		if got := a.level(tt.score); got != tt.want {
			t.Errorf("level(%f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAggregate_SignalsSortedBySeverity(t *testing.T) {
	a := New(testConfig())
	outcomes := cleanOutcomes()
	outcomes[1] = worker.Outcome{
		Category: model.CategoryStructural,
		Signals:  []model.FraudSignal{{Category: model.CategoryStructural, Kind: "weak", Severity: 0.2}},
	}
	outcomes[3] = worker.Outcome{
		Category: model.CategoryTransactional,
		Signals:  []model.FraudSignal{{Category: model.CategoryTransactional, Kind: "strong", Severity: 0.9}},
	}

	assessment := a.Aggregate(outcomes, model.ReconciliationResult{})
	if len(assessment.Signals) != 2 {
		t.Fatalf("Expected 2 signals, got %d", len(assessment.Signals))
	}
	if assessment.Signals[0].Kind != "strong" {
		t.Errorf("Highest severity first, got %s", assessment.Signals[0].Kind)
	}
}
