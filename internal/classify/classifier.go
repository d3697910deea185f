// Package classify is the pipeline's gate: it decides whether the document
// is a business bank statement before any extraction cost is spent.
package classify

import (
	"context"
	"fmt"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/logger"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/pdf"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/perception"
)

// keywordAgreeThreshold is how many distinct statement-vocabulary phrases
// the text channel needs before it votes "bank statement".
const keywordAgreeThreshold = 3

const classifyPrompt = `Analyze these document images and determine with high confidence whether this is a business bank statement.
A bank statement shows the transactions and balance of an account and typically carries the business's name and address, an account number, the bank's name and logo, and balance information.

Return a JSON object with:
- "is_bank_statement": boolean
- "confidence": number between 0 and 1
- "document_type": the identified document type
- "evidence": reasoning that cites specific elements of the document
- "institution": name of the bank if identifiable, else ""`

var classifySchema = perception.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []string{"is_bank_statement", "confidence", "document_type", "evidence"},
	"properties": map[string]any{
		"is_bank_statement": map[string]any{"type": "boolean"},
		"confidence":        map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"document_type":     map[string]any{"type": "string"},
		"evidence":          map[string]any{"type": "string"},
		"institution":       map[string]any{"type": "string"},
	},
})

type modelJudgment struct {
	IsBankStatement bool    `json:"is_bank_statement"`
	Confidence      float64 `json:"confidence"`
	DocumentType    string  `json:"document_type"`
	Evidence        string  `json:"evidence"`
	Institution     string  `json:"institution"`
}

// Classifier combines the perception judgment with a keyword heuristic.
type Classifier struct {
	client     *perception.Client
	samplePage int // pages sent to the model
}

// New creates a classifier. samplePages bounds how many page images are sent
// to the perception model.
func New(client *perception.Client, samplePages int) *Classifier {
	if samplePages <= 0 {
		samplePages = 2
	}
	return &Classifier{client: client, samplePage: samplePages}
}

// Classify runs both channels and applies the combination rule:
// agreement on "bank statement" yields a high-confidence verdict,
// disagreement yields Uncertain (extraction proceeds but downstream scoring
// discounts it), agreement on "not" is terminal.
//
// Returns model.ErrClassificationUnavailable when the perception channel is
// entirely unusable; that is a halt, never a silent "not a statement".
func (c *Classifier) Classify(ctx context.Context, doc *model.Document, images [][]byte) (model.ClassificationResult, error) {
	log := logger.FromContext(ctx)

	sample := images
	if len(sample) > c.samplePage {
		sample = sample[:c.samplePage]
	}
	if len(sample) == 0 {
		return model.ClassificationResult{}, fmt.Errorf("%w: no rasterized pages", model.ErrClassificationUnavailable)
	}

	var judgment modelJudgment
	err := c.client.CompleteJSON(ctx, perception.Request{
		Task:   "classify",
		Prompt: classifyPrompt,
		Images: sample,
	}, classifySchema, &judgment)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: %v", model.ErrClassificationUnavailable, err)
	}

	hits := pdf.KeywordHits(doc.Pages)
	keywordsAgree := hits >= keywordAgreeThreshold

	result := model.ClassificationResult{
		ModelAgrees:   judgment.IsBankStatement,
		KeywordsAgree: keywordsAgree,
		DocumentType:  judgment.DocumentType,
		Institution:   judgment.Institution,
	}

	switch {
	case judgment.IsBankStatement && keywordsAgree:
		result.Verdict = model.VerdictBankStatement
		result.Confidence = maxf(judgment.Confidence, 0.9)
		result.Rationale = fmt.Sprintf("model and text heuristics agree (%d vocabulary hits): %s", hits, judgment.Evidence)
	case !judgment.IsBankStatement && !keywordsAgree:
		result.Verdict = model.VerdictNotBankStatement
		result.Confidence = judgment.Confidence
		result.Rationale = fmt.Sprintf("identified as %q: %s", judgment.DocumentType, judgment.Evidence)
	default:
		result.Verdict = model.VerdictUncertain
		result.Confidence = minf(judgment.Confidence, 0.5)
		result.Rationale = fmt.Sprintf("channels disagree (model=%t, vocabulary hits=%d): %s",
			judgment.IsBankStatement, hits, judgment.Evidence)
	}

	log.Info().
		Str("verdict", string(result.Verdict)).
		Float64("confidence", result.Confidence).
		Int("keyword_hits", hits).
		Msg("classification complete")

	return result, nil
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
