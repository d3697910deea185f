package model

// SignalCategory identifies the evidence channel a fraud signal came from.
type SignalCategory string

const (
	CategoryVisual        SignalCategory = "visual"
	CategoryStructural    SignalCategory = "structural"
	CategoryFinancial     SignalCategory = "financial"
	CategoryTransactional SignalCategory = "transactional"
)

// Categories lists all evidence channels in report order.
var Categories = []SignalCategory{
	CategoryVisual,
	CategoryStructural,
	CategoryFinancial,
	CategoryTransactional,
}

// FraudSignal is one discrete piece of evidence with a severity. It is never
// a verdict on its own; the aggregator combines signals into the composite.
type FraudSignal struct {
	Category   SignalCategory         `json:"category"`
	Kind       string                 `json:"kind"`     // e.g. "balance_discrepancy"
	Severity   float64                `json:"severity"` // 0..1
	Confidence float64                `json:"confidence"`
	Evidence   []string               `json:"evidence"`
	Data       map[string]interface{} `json:"data,omitempty"` // transparent inputs behind the severity
}

// GroupSignals buckets signals by category, keeping every category key
// present so a clean channel shows as an empty list rather than a hole.
func GroupSignals(signals []FraudSignal) map[SignalCategory][]FraudSignal {
	grouped := make(map[SignalCategory][]FraudSignal, len(Categories))
	for _, c := range Categories {
		grouped[c] = []FraudSignal{}
	}
	for _, s := range signals {
		grouped[s.Category] = append(grouped[s.Category], s)
	}
	return grouped
}
