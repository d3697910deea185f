package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// WriteReport persists the report as pretty-printed JSON. When outDir is
// empty the report lands beside the input PDF as <stem>.analysis.json.
// Returns the path written.
func WriteReport(report *model.Report, inputPath, outDir string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, stem+".analysis.json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// RenderSummary writes the human-readable run summary. The JSON report is
// the artifact of record; this is the operator's at-a-glance view.
func RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n=== Bank Statement Verification ===\n")
	fmt.Fprintf(w, "Document:   %s\n", report.Document.SourcePath)
	fmt.Fprintf(w, "Pages:      %d", report.Document.PageCount)
	if report.Document.Truncated {
		fmt.Fprintf(w, " (analyzed first %d)", len(report.Document.Pages))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Status:     %s\n", report.Status)

	if report.Error != "" {
		fmt.Fprintf(w, "Reason:     %s\n", report.Error)
	}

	if c := report.Classification; c != nil {
		fmt.Fprintf(w, "Verdict:    %s (confidence %.2f)\n", c.Verdict, c.Confidence)
		if c.Verdict == model.VerdictNotBankStatement && c.DocumentType != "" {
			fmt.Fprintf(w, "Identified: %s\n", c.DocumentType)
		}
		if c.Institution != "" {
			fmt.Fprintf(w, "Bank:       %s\n", c.Institution)
		}
	}

	if p := report.Profile; p != nil && p.BusinessName.Present {
		fmt.Fprintf(w, "Business:   %s\n", p.BusinessName.Value)
	}
	if s := report.Summary; s != nil {
		fmt.Fprintf(w, "Activity:   %d transactions, %s in, %s out\n",
			s.TransactionCount, s.TotalDeposits, s.TotalWithdrawals)
	}

	risk := report.Risk
	if risk == nil {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "\nRisk score: %.2f (%s, confidence %.2f)\n",
		risk.Score, strings.ToUpper(string(risk.Level)), risk.Confidence)

	if risk.Reconciliation.Available {
		verdict := "PASS"
		if !risk.Reconciliation.Pass {
			verdict = fmt.Sprintf("FAIL (off by %s)", risk.Reconciliation.Discrepancy.Abs())
		}
		fmt.Fprintf(w, "Arithmetic: %s\n", verdict)
	}

	for _, c := range model.Categories {
		sub, ok := risk.SubScores[c]
		if !ok {
			continue
		}
		if sub.Unknown {
			fmt.Fprintf(w, "  %-14s unknown\n", c+":")
			continue
		}
		fmt.Fprintf(w, "  %-14s %.2f (%d signals)\n", c+":", sub.Score, sub.SignalCount)
	}

	if len(risk.Signals) > 0 {
		fmt.Fprintf(w, "\nFindings:\n")
		for _, s := range risk.Signals {
			fmt.Fprintf(w, "  [%s] %s (severity %.2f)\n", s.Category, s.Kind, s.Severity)
			for _, e := range s.Evidence {
				fmt.Fprintf(w, "      %s\n", e)
			}
		}
	}

	for _, caveat := range risk.Caveats {
		fmt.Fprintf(w, "Caveat: %s\n", caveat)
	}
	fmt.Fprintln(w)
}
