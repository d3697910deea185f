package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/cache"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/logger"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/pdf"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/perception"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/pipeline"
)

var (
	outputDir    string
	perceptModel string
	runTimeout   time.Duration
	noCache      bool
	noReport     bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <statement.pdf>",
	Short: "Analyze a PDF bank statement and produce a fraud-risk report",
	Long: `Run performs the full verification pipeline on one document:
- Confirm the document is a business bank statement
- Extract the business profile, balances, and transaction lines
- Reconcile the arithmetic against the stated balances
- Run visual, structural, financial, and transactional fraud checks
- Aggregate everything into a transparent risk assessment

The JSON report is written beside the input PDF unless -o is given.

Example:
  kyb-agent run statement.pdf
  kyb-agent run statement.pdf -o reports/ -v
  kyb-agent run statement.pdf --model gpt-4o --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalysis,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for the JSON report (default: beside the input)")
	runCmd.Flags().StringVar(&perceptModel, "model", "", "perception model override")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall run timeout")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the perception response cache")
	runCmd.Flags().BoolVar(&noReport, "no-report", false, "print the summary only, skip the JSON report")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if perceptModel != "" {
		cfg.Perception.Model = perceptModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Dir = outputDir
	cfg.Output.Verbose = verbose

	if cfg.Perception.APIKey == "" {
		cfg.Perception.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Perception.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	client, err := buildPerceptionClient(cfg)
	if err != nil {
		return err
	}

	log := logger.New(verbose)
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	p := pipeline.New(cfg, client, pdf.NewPopplerRasterizer())

	report, err := p.Run(ctx, path)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !noReport {
		written, err := pipeline.WriteReport(report, path, cfg.Output.Dir)
		if err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Report written: %s\n", written)
		}
	}

	pipeline.RenderSummary(os.Stdout, report)
	return statusErr(report)
}

// statusErr maps degraded terminal statuses to a non-zero exit. The report
// stays on disk either way; a verdict of "not a bank statement" is a completed
// determination, not a failure.
func statusErr(report *model.Report) error {
	switch report.Status {
	case model.StatusInconclusive, model.StatusInsufficientData:
		return fmt.Errorf("analysis did not complete (%s): %s", report.Status, report.Error)
	}
	return nil
}

// loadConfig layers the config file and KYB_* environment over the defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func buildPerceptionClient(cfg *model.Config) (*perception.Client, error) {
	provider, err := perception.NewProvider(
		cfg.Perception.Provider,
		cfg.Perception.APIKey,
		cfg.Perception.BaseURL,
		cfg.Perception.Model,
	)
	if err != nil {
		return nil, err
	}

	opts := []perception.Option{
		perception.WithTimeout(cfg.Perception.Timeout),
		perception.WithRetries(cfg.Perception.MaxRetries),
		perception.WithRateLimit(cfg.Perception.RequestsPerSecond, cfg.Perception.Burst),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, perception.WithCache(perceptionCache(cfg), cfg.Cache.TTL))
	}
	return perception.NewClient(provider, opts...), nil
}

// perceptionCache keeps responses in memory for the run and on disk across
// runs, so re-analyzing the same document is free.
func perceptionCache(cfg *model.Config) cache.Cache {
	dir, err := os.UserCacheDir()
	if err != nil {
		return cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
	}
	return cache.NewLayeredCache(cfg.Cache.TTL, filepath.Join(dir, "kyb-agent"), 24*time.Hour)
}
