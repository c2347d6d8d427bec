package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Matcher   MatcherConfig   `yaml:"matcher" mapstructure:"matcher"`
	Trial     TrialConfig     `yaml:"trial" mapstructure:"trial"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SerperConfig holds Serper web search API settings.
type SerperConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Location string `yaml:"location" mapstructure:"location"`
	Country  string `yaml:"country" mapstructure:"country"`
	// MaxResults caps how many organic results survive filtering.
	MaxResults int `yaml:"max_results" mapstructure:"max_results"`
	// ExcludedDomains are netloc fragments removed from search results
	// before candidates are formed (registries, known aggregators).
	ExcludedDomains   []string `yaml:"excluded_domains" mapstructure:"excluded_domains"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// AnthropicConfig holds the semantic judge API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	// MaxContentChars bounds the page-content prefix sent to the judge.
	MaxContentChars int `yaml:"max_content_chars" mapstructure:"max_content_chars"`
}

// ScrapeConfig configures page fetching.
type ScrapeConfig struct {
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// MatcherConfig parameterizes the candidate judge. The lists are domain
// knowledge, not logic, and are meant to be overridden from config.
type MatcherConfig struct {
	// LegalSuffixes are stripped during name normalization, in order.
	// Longer phrases must precede their substrings.
	LegalSuffixes []string `yaml:"legal_suffixes" mapstructure:"legal_suffixes"`
	// AggregatorFragments are directory/data-broker domain fragments whose
	// presence in page content disqualifies a content-evidence match.
	AggregatorFragments []string `yaml:"aggregator_fragments" mapstructure:"aggregator_fragments"`
	SimilarityThreshold float64  `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// TrialConfig bounds the retry and recursion behavior of a trial.
type TrialConfig struct {
	MaxAttempts        int `yaml:"max_attempts" mapstructure:"max_attempts"`
	MaxEmbeddedFollows int `yaml:"max_embedded_follows" mapstructure:"max_embedded_follows"`
}

// ReportConfig configures trial-result persistence.
type ReportConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentTrials int `yaml:"max_concurrent_trials" mapstructure:"max_concurrent_trials"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.location", "United Kingdom")
	v.SetDefault("serper.country", "gb")
	v.SetDefault("serper.max_results", 3)
	v.SetDefault("serper.excluded_domains", []string{
		".gov.uk",
		"find-and-update.company-information.service.gov.uk",
		"open.endole.co.uk",
		"northdata.com",
	})
	v.SetDefault("serper.requests_per_second", 2.0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.max_content_chars", 15000)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scrape.max_body_bytes", 10*1024*1024)
	v.SetDefault("matcher.legal_suffixes", []string{
		"limited liability partnership",
		"limited",
		"ltd",
		"llp",
	})
	v.SetDefault("matcher.aggregator_fragments", []string{
		"open.endole.co.uk",
		"uk.globaldatabase.com",
		"companywall.co.uk",
		"bringo.co.uk",
		"companiesintheuk.co.uk",
		"companycheck.co.uk",
		"bizdb.co.uk",
		"check-business.co.uk",
	})
	v.SetDefault("matcher.similarity_threshold", 0.90)
	v.SetDefault("trial.max_attempts", 2)
	v.SetDefault("trial.max_embedded_follows", 1)
	v.SetDefault("report.database_path", "resolve.db")
	v.SetDefault("batch.max_concurrent_trials", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that credentials required to run trials are present.
// A missing key is fatal before any trial starts, never degraded.
func (c *Config) Validate() error {
	if c.Serper.Key == "" {
		return eris.New("config: serper.key is not set (RESOLVE_SERPER_KEY)")
	}
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is not set (RESOLVE_ANTHROPIC_KEY)")
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
