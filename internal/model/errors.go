package model

import "errors"

// Failure taxonomy. Every pipeline failure converts to exactly one of these;
// none of them escapes as an unhandled error and each maps to a well-formed,
// possibly degraded, report.
var (
	// ErrClassificationUnavailable: rasterization or perception failed for
	// all sampled pages. Fatal; the run ends with an inconclusive report.
	ErrClassificationUnavailable = errors.New("classification unavailable")

	// ErrExtractionFailed: no usable structured data at all. Fatal to
	// scoring; the classification verdict is still reported.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrDetectorUnavailable: one analyzer failed. Non-fatal; only that
	// category degrades to unknown.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrReconciliationUnavailable: balances or transactions missing, so
	// the arithmetic cross-check cannot run. Degrades the financial
	// category like a detector failure.
	ErrReconciliationUnavailable = errors.New("reconciliation unavailable")
)
