package detect

import (
	"context"
	"fmt"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/perception"
)

const visualPrompt = `Carefully analyze these bank statement page images for visual signs of tampering or falsification:

1. Inconsistent fonts or sizing within a single field or column
2. Misaligned text, rows, or table columns
3. Signs of text deletion, addition, or overlay patches
4. Unusual pixelation or artifacts around text
5. Irregular whitespace or background inconsistencies
6. Missing or incorrect institution logo
7. Placeholder text such as "XXXX" or "[ENTER TEXT HERE]" in account numbers or amounts

For every suspicious region report how many INDEPENDENT cues co-occur there.

Return JSON:
{
  "tampering_detected": boolean,
  "confidence": number 0-1,
  "findings": [
    {"description": "...", "area": "where on the page", "cues": integer count of co-occurring cues}
  ]
}`

var visualSchema = perception.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []string{"tampering_detected", "confidence", "findings"},
	"properties": map[string]any{
		"tampering_detected": map[string]any{"type": "boolean"},
		"confidence":         map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"findings": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"description", "cues"},
				"properties": map[string]any{
					"description": map[string]any{"type": "string"},
					"area":        map[string]any{"type": "string"},
					"cues":        map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
	},
})

type visualReply struct {
	TamperingDetected bool    `json:"tampering_detected"`
	Confidence        float64 `json:"confidence"`
	Findings          []struct {
		Description string `json:"description"`
		Area        string `json:"area"`
		Cues        int    `json:"cues"`
	} `json:"findings"`
}

// VisualDetector inspects the rasterized pages through the perception model.
// It is the least reliable channel (image quality varies), which is why the
// aggregator weighs it lowest.
type VisualDetector struct {
	client *perception.Client
}

// NewVisualDetector creates the visual analyzer.
func NewVisualDetector(client *perception.Client) *VisualDetector {
	return &VisualDetector{client: client}
}

// Category returns the visual channel.
func (d *VisualDetector) Category() model.SignalCategory { return model.CategoryVisual }

// Detect sends the page images for tampering analysis. Severity of each
// finding grows with the number of independent cues co-occurring on the
// same region.
func (d *VisualDetector) Detect(ctx context.Context, in Input) ([]model.FraudSignal, error) {
	if len(in.Images) == 0 {
		return nil, fmt.Errorf("%w: visual: no page images", model.ErrDetectorUnavailable)
	}

	var reply visualReply
	err := d.client.CompleteJSON(ctx, perception.Request{
		Task:   "detect-visual",
		Prompt: visualPrompt,
		Images: in.Images,
	}, visualSchema, &reply)
	if err != nil {
		return nil, fmt.Errorf("%w: visual: %v", model.ErrDetectorUnavailable, err)
	}

	if !reply.TamperingDetected {
		return []model.FraudSignal{}, nil
	}

	signals := make([]model.FraudSignal, 0, len(reply.Findings))
	for _, f := range reply.Findings {
		cues := f.Cues
		if cues < 1 {
			cues = 1
		}
		evidence := []string{f.Description}
		if f.Area != "" {
			evidence = append(evidence, "region: "+f.Area)
		}
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryVisual,
			Kind:       "visual_tampering",
			Severity:   clamp01(float64(cues) / 4),
			Confidence: reply.Confidence,
			Evidence:   evidence,
			Data: map[string]interface{}{
				"cues":    cues,
				"formula": "min(cues/4, 1)",
			},
		})
	}
	return signals, nil
}
