// Package pipeline drives a verification run end to end: load, rasterize,
// classify, extract, reconcile, detect, aggregate. Every run terminates in
// exactly one report status; a degraded stage downgrades the status instead
// of failing the run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/classify"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/detect"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/extract"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/logger"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/pdf"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/perception"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/reconcile"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/score"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/worker"
)

// Pipeline owns one configured set of stages. It is safe to run multiple
// documents through the same pipeline sequentially.
type Pipeline struct {
	cfg        *model.Config
	loader     *pdf.Loader
	rasterizer pdf.Rasterizer
	classifier *classify.Classifier
	extractor  *extract.Extractor
	reconciler *reconcile.Reconciler
	detectors  []detect.Detector
	aggregator *score.Aggregator
	pool       *worker.Pool
}

// New wires the stages from configuration. The perception client is shared
// by every stage that needs the vision capability, so its rate limit and
// cache apply across the whole run.
func New(cfg *model.Config, client *perception.Client, rasterizer pdf.Rasterizer) *Pipeline {
	detectors := []detect.Detector{
		detect.NewVisualDetector(client),
		detect.NewStructuralDetector(),
		detect.NewFinancialDetector(),
		detect.NewTransactionalDetector(cfg.Transactional),
	}
	return &Pipeline{
		cfg:        cfg,
		loader:     pdf.NewLoader(cfg.Pages.Max),
		rasterizer: rasterizer,
		classifier: classify.New(client, cfg.Pages.Classify),
		extractor:  extract.New(client),
		reconciler: reconcile.New(cfg.Reconcile),
		detectors:  detectors,
		aggregator: score.New(cfg.Score),
		pool:       worker.NewPool(len(detectors)),
	}
}

// Run analyzes one PDF. The returned error is reserved for unrecoverable
// input problems (unreadable file); every downstream degradation is folded
// into the report status instead.
func (p *Pipeline) Run(ctx context.Context, path string) (*model.Report, error) {
	log := logger.FromContext(ctx).With().Str("path", path).Logger()
	ctx = logger.WithContext(ctx, log)

	doc, err := p.loader.Load(path)
	if err != nil {
		return nil, err
	}
	return p.analyze(ctx, path, doc), nil
}

// analyze runs every stage after ingestion. It always returns a well-formed
// report; degraded stages downgrade the status.
func (p *Pipeline) analyze(ctx context.Context, path string, doc *model.Document) *model.Report {
	log := logger.FromContext(ctx)

	report := &model.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Document:    *doc,
	}
	log = log.With().Str("run_id", report.RunID).Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().
		Int("pages", doc.PageCount).
		Bool("truncated", doc.Truncated).
		Msg("document loaded")

	images, err := p.rasterizer.Rasterize(ctx, path, p.cfg.Pages.Max)
	if err != nil {
		// Classification needs at least one image; let it report the
		// unavailability so the run ends inconclusive, not crashed.
		log.Warn().Err(err).Msg("rasterization failed")
	}

	classification, err := p.classifier.Classify(ctx, doc, images)
	if err != nil {
		report.Status = model.StatusInconclusive
		report.Error = err.Error()
		log.Warn().Err(err).Msg("classification unavailable")
		return report
	}
	report.Classification = &classification
	log.Info().
		Str("verdict", string(classification.Verdict)).
		Float64("confidence", classification.Confidence).
		Msg("document classified")

	if !classification.Proceed() {
		report.Status = model.StatusNotApplicable
		return report
	}

	extracted, err := p.extractor.Extract(ctx, doc, images)
	if err != nil {
		report.Status = model.StatusInsufficientData
		report.Error = err.Error()
		log.Warn().Err(err).Msg("extraction produced no usable data")
		return report
	}
	report.Profile = &extracted.Profile
	report.Balances = &extracted.Balances
	report.Transactions = extracted.Transactions
	report.Summary = &extracted.Summary

	// Reconciliation runs before the detectors: the financial channel
	// consumes its result, and the arithmetic is too cheap to schedule.
	recon, reconErr := p.reconciler.Reconcile(extracted.Balances, extracted.Transactions)
	if reconErr != nil {
		log.Warn().Err(reconErr).Msg("reconciliation unavailable")
	}

	outcomes := p.runDetectors(ctx, doc, images, extracted, recon)
	assessment := p.aggregator.Aggregate(outcomes, recon)

	report.Signals = model.GroupSignals(assessment.Signals)
	report.Risk = &assessment
	report.Status = model.StatusCompleted

	log.Info().
		Float64("score", assessment.Score).
		Str("level", string(assessment.Level)).
		Float64("confidence", assessment.Confidence).
		Msg("assessment complete")

	return report
}

func (p *Pipeline) runDetectors(ctx context.Context, doc *model.Document, images [][]byte, extracted *extract.Result, recon model.ReconciliationResult) []worker.Outcome {
	in := detect.Input{
		Document:       doc,
		Images:         images,
		Profile:        &extracted.Profile,
		Balances:       &extracted.Balances,
		Transactions:   extracted.Transactions,
		Summary:        &extracted.Summary,
		Reconciliation: &recon,
	}

	tasks := make([]worker.Task, 0, len(p.detectors))
	for _, d := range p.detectors {
		d := d
		tasks = append(tasks, worker.Task{
			Category: d.Category(),
			Run: func(ctx context.Context) ([]model.FraudSignal, error) {
				return d.Detect(ctx, in)
			},
		})
	}
	return p.pool.Run(ctx, tasks)
}
