package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// editorSignatures are Producer/Creator substrings that indicate the file
// passed through an image or PDF editor after authoring. Legitimate
// statements come straight out of banking render farms.
var editorSignatures = []string{
	"photoshop",
	"illustrator",
	"gimp",
	"inkscape",
	"canva",
	"ilovepdf",
	"sejda",
	"smallpdf",
	"pdfescape",
	"pdf editor",
	"nitro",
	"foxit phantompdf",
}

// StructuralDetector reads the raw PDF object graph, not the rendered
// image. It needs no perception calls and is fully deterministic.
type StructuralDetector struct{}

// NewStructuralDetector creates the structural analyzer.
func NewStructuralDetector() *StructuralDetector { return &StructuralDetector{} }

// Category returns the structural channel.
func (d *StructuralDetector) Category() model.SignalCategory { return model.CategoryStructural }

// Detect flags object-graph facts inconsistent with a single linear
// authoring pass.
func (d *StructuralDetector) Detect(ctx context.Context, in Input) ([]model.FraudSignal, error) {
	if in.Document == nil || in.Document.Structure.ObjectCount == 0 {
		return nil, fmt.Errorf("%w: structural: no parsed object graph", model.ErrDetectorUnavailable)
	}
	stats := in.Document.Structure

	signals := []model.FraudSignal{}

	// Incremental updates: each extra xref section is one post-hoc write.
	if stats.XRefSections > 1 {
		extra := stats.XRefSections - 1
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryStructural,
			Kind:       "incremental_updates",
			Severity:   clamp01(0.3 + 0.2*float64(extra-1)),
			Confidence: 0.9,
			Evidence: []string{fmt.Sprintf(
				"%d xref sections: the file was rewritten %d time(s) after initial authoring", stats.XRefSections, extra)},
			Data: map[string]interface{}{
				"xref_sections": stats.XRefSections,
				"formula":       "min(0.3 + 0.2*(sections-2), 1)",
			},
		})
	}

	if stats.ModifiedAfterCreation() {
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryStructural,
			Kind:       "timestamp_mismatch",
			Severity:   0.3,
			Confidence: 0.8,
			Evidence: []string{fmt.Sprintf("modification date %q differs from creation date %q",
				stats.Info.ModDate, stats.Info.CreationDate)},
		})
	}

	if tool := matchEditorSignature(stats.Info); tool != "" {
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryStructural,
			Kind:       "editing_tool_signature",
			Severity:   0.6,
			Confidence: 0.85,
			Evidence: []string{fmt.Sprintf("metadata names an editing tool (%q); bank render systems do not", tool)},
			Data: map[string]interface{}{
				"creator":  stats.Info.Creator,
				"producer": stats.Info.Producer,
			},
		})
	}

	if stats.HasJavaScript || stats.HasEmbeddedFiles {
		what := []string{}
		if stats.HasJavaScript {
			what = append(what, "JavaScript")
		}
		if stats.HasEmbeddedFiles {
			what = append(what, "embedded files")
		}
		signals = append(signals, model.FraudSignal{
			Category:   model.CategoryStructural,
			Kind:       "active_content",
			Severity:   0.4,
			Confidence: 0.9,
			Evidence:   []string{strings.Join(what, " and ") + " present; unusual in a legitimate financial document"},
		})
	}

	// Far more fonts than the windowed pages need suggests patched-in text
	// runs carrying their own font resources.
	pages := len(in.Document.Pages)
	if pages > 0 {
		perPage := float64(stats.FontCount) / float64(pages)
		if perPage > 8 {
			signals = append(signals, model.FraudSignal{
				Category:   model.CategoryStructural,
				Kind:       "font_proliferation",
				Severity:   clamp01(perPage / 20),
				Confidence: 0.6,
				Evidence: []string{fmt.Sprintf("%d font resources across %d pages (%.1f per page)",
					stats.FontCount, pages, perPage)},
				Data: map[string]interface{}{
					"fonts_per_page": perPage,
					"formula":        "min(fonts_per_page/20, 1)",
				},
			})
		}
	}

	return signals, nil
}

func matchEditorSignature(info model.DocInfo) string {
	joined := strings.ToLower(info.Creator + " " + info.Producer)
	for _, sig := range editorSignatures {
		if strings.Contains(joined, sig) {
			return sig
		}
	}
	return ""
}
