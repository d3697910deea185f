package model

import "time"

// Config holds all tunable policy parameters. Tolerances, weights, and
// thresholds are deliberately configuration, not hard-coded contracts.
type Config struct {
	Perception    PerceptionConfig    `mapstructure:"perception" yaml:"perception"`
	Pages         PageConfig          `mapstructure:"pages" yaml:"pages"`
	Reconcile     ReconcileConfig     `mapstructure:"reconcile" yaml:"reconcile"`
	Score         ScoreConfig         `mapstructure:"score" yaml:"score"`
	Transactional TransactionalConfig `mapstructure:"transactional" yaml:"transactional"`
	Cache         CacheConfig         `mapstructure:"cache" yaml:"cache"`
	Output        OutputConfig        `mapstructure:"output" yaml:"output"`
}

// PerceptionConfig configures the external perception capability.
type PerceptionConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"` // only "openai" today
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"` // per call
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// PageConfig bounds the page window.
type PageConfig struct {
	Max      int `mapstructure:"max" yaml:"max"`           // hard cap, default 20
	Classify int `mapstructure:"classify" yaml:"classify"` // pages sampled for classification
}

// ReconcileConfig holds the pass/fail tolerances. The looser of the absolute
// and relative bound wins.
type ReconcileConfig struct {
	AbsoluteTolerance float64 `mapstructure:"absolute_tolerance" yaml:"absolute_tolerance"`
	RelativeTolerance float64 `mapstructure:"relative_tolerance" yaml:"relative_tolerance"` // fraction of |reported closing|
}

// ScoreConfig holds the aggregation weights and level thresholds.
// Financial and transactional channels weigh higher than visual because
// visual analysis is the least reliable channel under image-quality variance.
type ScoreConfig struct {
	WeightVisual        float64 `mapstructure:"weight_visual" yaml:"weight_visual"`
	WeightStructural    float64 `mapstructure:"weight_structural" yaml:"weight_structural"`
	WeightFinancial     float64 `mapstructure:"weight_financial" yaml:"weight_financial"`
	WeightTransactional float64 `mapstructure:"weight_transactional" yaml:"weight_transactional"`

	LowThreshold    float64 `mapstructure:"low_threshold" yaml:"low_threshold"`       // minimal below this
	MediumThreshold float64 `mapstructure:"medium_threshold" yaml:"medium_threshold"` // low below this
	HighThreshold   float64 `mapstructure:"high_threshold" yaml:"high_threshold"`     // medium below, high at or above
}

// Weight returns the configured weight for a category.
func (s ScoreConfig) Weight(c SignalCategory) float64 {
	switch c {
	case CategoryVisual:
		return s.WeightVisual
	case CategoryStructural:
		return s.WeightStructural
	case CategoryFinancial:
		return s.WeightFinancial
	case CategoryTransactional:
		return s.WeightTransactional
	default:
		return 0
	}
}

// TransactionalConfig holds the plausibility thresholds for the
// transactional detector.
type TransactionalConfig struct {
	MaxDuplicates  int     `mapstructure:"max_duplicates" yaml:"max_duplicates"`     // identical lines tolerated
	MaxPerDay      float64 `mapstructure:"max_per_day" yaml:"max_per_day"`           // velocity ceiling
	FeeCeiling     float64 `mapstructure:"fee_ceiling" yaml:"fee_ceiling"`           // largest plausible fee magnitude
	RoundThreshold int     `mapstructure:"round_threshold" yaml:"round_threshold"`   // large round amounts tolerated
}

// CacheConfig controls the perception response cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir,omitempty"` // default: beside the input PDF
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Perception: PerceptionConfig{
			Provider:          "openai",
			Model:             "gpt-4o",
			Timeout:           60 * time.Second,
			MaxRetries:        2,
			RequestsPerSecond: 2,
			Burst:             4,
			MaxTokens:         4000,
		},
		Pages: PageConfig{
			Max:      MaxPages,
			Classify: 2,
		},
		Reconcile: ReconcileConfig{
			AbsoluteTolerance: 0.01,
			RelativeTolerance: 0.001,
		},
		Score: ScoreConfig{
			WeightVisual:        0.15,
			WeightStructural:    0.25,
			WeightFinancial:     0.35,
			WeightTransactional: 0.25,
			LowThreshold:        0.25,
			MediumThreshold:     0.5,
			HighThreshold:       0.75,
		},
		Transactional: TransactionalConfig{
			MaxDuplicates:  2,
			MaxPerDay:      40,
			FeeCeiling:     500,
			RoundThreshold: 2,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Minute,
		},
		Output: OutputConfig{},
	}
}
