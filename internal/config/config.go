package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cxc-ai/catalog-bot/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	XAI        XAIConfig        `yaml:"xai" mapstructure:"xai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Unwrangle  UnwrangleConfig  `yaml:"unwrangle" mapstructure:"unwrangle"`
	Ferguson   FergusonConfig   `yaml:"ferguson" mapstructure:"ferguson"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string           `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string           `yaml:"database_url" mapstructure:"database_url"`
	Pool        store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port   int    `yaml:"port" mapstructure:"port"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// UIRefererHosts marks request referers as portal-UI traffic in the
	// call logs.
	UIRefererHosts []string `yaml:"ui_referer_hosts" mapstructure:"ui_referer_hosts"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// XAIConfig holds xAI (Grok) API settings. The API is OpenAI-compatible.
type XAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ProvidersConfig controls provider fallback ordering.
type ProvidersConfig struct {
	// Order lists provider names first-choice first. Providers without
	// a configured key are skipped at wiring time.
	Order []string `yaml:"order" mapstructure:"order"`
}

// UnwrangleConfig holds Unwrangle scraping API settings.
type UnwrangleConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
	CreditsAlarm int     `yaml:"credits_alarm" mapstructure:"credits_alarm"`
}

// FergusonConfig configures Ferguson product lookups.
type FergusonConfig struct {
	// Prefixes are brand model-number prefixes used to generate
	// format variations, e.g. ["K-", "HL-"].
	Prefixes     []string `yaml:"prefixes" mapstructure:"prefixes"`
	CacheTTLMins int      `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
}

// VerifyConfig configures source verification.
type VerifyConfig struct {
	Strict            bool     `yaml:"strict" mapstructure:"strict"`
	AuthorizedSources []string `yaml:"authorized_sources" mapstructure:"authorized_sources"`
	// FieldsFile optionally points to a YAML file overriding the
	// per-portal critical field lists.
	FieldsFile string `yaml:"fields_file" mapstructure:"fields_file"`
	KeepLogs   int    `yaml:"keep_logs" mapstructure:"keep_logs"`
}

// MonitoringConfig configures metrics alerting.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	ScoreGapThreshold    float64 `yaml:"score_gap_threshold" mapstructure:"score_gap_threshold"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// ResilienceConfig configures retry and circuit breaker behavior for
// provider calls.
type ResilienceConfig struct {
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig holds retry tuning knobs.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig holds circuit breaker tuning knobs.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "catalog.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ui_referer_hosts", []string{"vercel.app", "localhost"})
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("xai.model", "grok-2-latest")
	v.SetDefault("xai.base_url", "https://api.x.ai/v1")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("providers.order", []string{"openai", "xai", "anthropic"})
	v.SetDefault("unwrangle.base_url", "https://data.unwrangle.com/api/getter/")
	v.SetDefault("unwrangle.rate_per_sec", 5)
	v.SetDefault("unwrangle.burst", 5)
	v.SetDefault("ferguson.prefixes", []string{"K-", "HL-", "T-", "DEL-"})
	v.SetDefault("ferguson.cache_ttl_mins", 15)
	v.SetDefault("verify.strict", false)
	v.SetDefault("verify.keep_logs", 100)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.score_gap_threshold", 20)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("resilience.retry.max_attempts", 3)
	v.SetDefault("resilience.circuit.failure_threshold", 5)
	v.SetDefault("resilience.circuit.reset_timeout_secs", 30)

	// AutomaticEnv only surfaces env vars for registered keys, so every
	// key without a real default still needs an empty one.
	v.SetDefault("server.api_key", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("xai.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("unwrangle.key", "")
	v.SetDefault("unwrangle.credits_alarm", 0)
	v.SetDefault("verify.authorized_sources", []string{})
	v.SetDefault("verify.fields_file", "")
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("resilience.retry.initial_backoff_ms", 0)
	v.SetDefault("resilience.retry.max_backoff_ms", 0)
	v.SetDefault("resilience.retry.multiplier", 0)
	v.SetDefault("resilience.retry.jitter_fraction", 0)

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

// Validate checks that the fields a run mode needs are present. Modes:
// "serve" (HTTP API), "enrich" (CLI enrichment), "lookup" (Ferguson
// lookups only).
func (c *Config) Validate(mode string) error {
	var missing []string

	requireProvider := func() {
		if c.OpenAI.Key == "" && c.XAI.Key == "" && c.Anthropic.Key == "" {
			missing = append(missing, "at least one provider key (openai.key, xai.key or anthropic.key) is required")
		}
	}
	requireStore := func() {
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			missing = append(missing, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
		requireProvider()
		requireStore()
	case "enrich":
		requireProvider()
		requireStore()
	case "lookup":
		if c.Unwrangle.Key == "" {
			missing = append(missing, "unwrangle.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// CriticalFields loads the per-portal critical field overrides from the
// configured YAML file. Returns nil when no file is configured, leaving
// the built-in defaults in effect.
func (c VerifyConfig) CriticalFields() (map[string][]string, error) {
	if c.FieldsFile == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.FieldsFile)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read fields file %s", c.FieldsFile)
	}
	var fields map[string][]string
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, eris.Wrapf(err, "config: parse fields file %s", c.FieldsFile)
	}
	return fields, nil
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
