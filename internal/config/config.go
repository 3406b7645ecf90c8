package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/tender-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Pricing   cost.Rates      `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds credentials and model settings for the oracle.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures PDF text extraction.
type ExtractConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	TempDir       string `yaml:"temp_dir" mapstructure:"temp_dir"`
	Workers       int    `yaml:"workers" mapstructure:"workers"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
	MinChars      int    `yaml:"min_chars" mapstructure:"min_chars"`
	MaxChars      int    `yaml:"max_chars" mapstructure:"max_chars"`
}

// AnalysisConfig configures batching and oracle dispatch.
type AnalysisConfig struct {
	BatchSize     int `yaml:"batch_size" mapstructure:"batch_size"`
	Workers       int `yaml:"workers" mapstructure:"workers"`
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// CacheTTL returns the analysis cache lifetime; zero disables the cache.
func (a AnalysisConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLHours) * time.Hour
}

// PipelineConfig configures run orchestration and ranking.
type PipelineConfig struct {
	VendorConcurrency int    `yaml:"vendor_concurrency" mapstructure:"vendor_concurrency"`
	ISOMinDays        int    `yaml:"iso_min_days" mapstructure:"iso_min_days"`
	Currency          string `yaml:"currency" mapstructure:"currency"`
	RubricPath        string `yaml:"rubric_path" mapstructure:"rubric_path"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures remote archive downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bound explicitly so AutomaticEnv sees keys without defaults.
	_ = v.BindEnv("anthropic.key")
	_ = v.BindEnv("pipeline.rubric_path")
	_ = v.BindEnv("extract.temp_dir")

	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 8192)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.workers", 10)
	v.SetDefault("extract.max_pages", 3)
	v.SetDefault("extract.min_chars", 100)
	v.SetDefault("extract.max_chars", 15000)
	v.SetDefault("analysis.batch_size", 8)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.retry_attempts", 3)
	v.SetDefault("analysis.cache_ttl_hours", 0)
	v.SetDefault("pipeline.vendor_concurrency", 1)
	v.SetDefault("pipeline.iso_min_days", 180)
	v.SetDefault("pipeline.currency", "OMR")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "tender.db")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("fetch.user_agent", "tender-cli/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 512)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Pricing.Anthropic) == 0 {
		cfg.Pricing = cost.DefaultRates()
	}

	return &cfg, nil
}

// Validate checks settings the pipeline cannot run without. requireOracle
// adds the API key check for commands that call the oracle.
func (c *Config) Validate(requireOracle bool) error {
	var errs []string

	if requireOracle && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required")
	}
	if c.Anthropic.MaxTokens <= 0 {
		errs = append(errs, "anthropic.max_tokens must be positive")
	}
	if c.Extract.Workers <= 0 {
		errs = append(errs, "extract.workers must be positive")
	}
	if c.Extract.MaxPages <= 0 {
		errs = append(errs, "extract.max_pages must be positive")
	}
	if c.Extract.MaxChars <= c.Extract.MinChars {
		errs = append(errs, "extract.max_chars must exceed extract.min_chars")
	}
	if c.Analysis.BatchSize <= 0 {
		errs = append(errs, "analysis.batch_size must be positive")
	}
	if c.Analysis.Workers <= 0 {
		errs = append(errs, "analysis.workers must be positive")
	}
	if c.Pipeline.VendorConcurrency <= 0 {
		errs = append(errs, "pipeline.vendor_concurrency must be positive")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
