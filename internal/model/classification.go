package model

// Verdict is the document-type decision from the classification gate.
type Verdict string

const (
	VerdictBankStatement    Verdict = "bank_statement"
	VerdictNotBankStatement Verdict = "not_bank_statement"
	VerdictUncertain        Verdict = "uncertain"
)

// ClassificationResult is produced once per document. A verdict of
// VerdictNotBankStatement is terminal: no later stage may run.
type ClassificationResult struct {
	Verdict      Verdict `json:"verdict"`
	Confidence   float64 `json:"confidence"` // 0..1
	Rationale    string  `json:"rationale"`
	DocumentType string  `json:"document_type,omitempty"` // identified type when not a statement
	Institution  string  `json:"institution,omitempty"`   // bank name if the model saw one

	// ModelAgrees and KeywordsAgree record the two independent channels
	// behind the combination rule, kept for the audit trail.
	ModelAgrees   bool `json:"model_agrees"`
	KeywordsAgree bool `json:"keywords_agree"`
}

// Proceed reports whether downstream stages may run on this verdict.
func (c ClassificationResult) Proceed() bool {
	return c.Verdict != VerdictNotBankStatement
}
