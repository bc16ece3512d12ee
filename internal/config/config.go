package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Verify  VerifyConfig  `yaml:"verify" mapstructure:"verify"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SessionConfig holds LinkedIn credentials and browser behavior.
type SessionConfig struct {
	Email              string `yaml:"email" mapstructure:"email"`
	Password           string `yaml:"password" mapstructure:"password"`
	Headless           bool   `yaml:"headless" mapstructure:"headless"`
	PageTimeoutSecs    int    `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	ChallengeGraceSecs int    `yaml:"challenge_grace_secs" mapstructure:"challenge_grace_secs"`
	UserAgent          string `yaml:"user_agent" mapstructure:"user_agent"`
}

// PageTimeout returns the per-page navigation timeout.
func (c SessionConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSecs) * time.Second
}

// ChallengeGrace returns how long to wait on a security challenge page.
func (c SessionConfig) ChallengeGrace() time.Duration {
	return time.Duration(c.ChallengeGraceSecs) * time.Second
}

// BatchConfig configures batch scraping.
type BatchConfig struct {
	Mode          string `yaml:"mode" mapstructure:"mode"`
	DelayMinSecs  int    `yaml:"delay_min_secs" mapstructure:"delay_min_secs"`
	DelayMaxSecs  int    `yaml:"delay_max_secs" mapstructure:"delay_max_secs"`
	Limit         int    `yaml:"limit" mapstructure:"limit"`
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
	InputFile     string `yaml:"input_file" mapstructure:"input_file"`
	OverridesFile string `yaml:"overrides_file" mapstructure:"overrides_file"`
}

// DelayMin returns the minimum inter-company delay.
func (c BatchConfig) DelayMin() time.Duration {
	return time.Duration(c.DelayMinSecs) * time.Second
}

// DelayMax returns the maximum inter-company delay.
func (c BatchConfig) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxSecs) * time.Second
}

// ResolveConfig configures company name resolution.
type ResolveConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// VerifyConfig configures the optional AI URL verifier.
type VerifyConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the run-history HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LINKEDIN_CLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials come from the bare env vars the scraper has always used.
	_ = v.BindEnv("session.email", "LINKEDIN_EMAIL")
	_ = v.BindEnv("session.password", "LINKEDIN_PASSWORD")
	_ = v.BindEnv("verify.key", "ANTHROPIC_API_KEY")

	// Defaults
	v.SetDefault("session.headless", true)
	v.SetDefault("session.page_timeout_secs", 30)
	v.SetDefault("session.challenge_grace_secs", 30)
	v.SetDefault("batch.mode", "single_session")
	v.SetDefault("batch.delay_min_secs", 3)
	v.SetDefault("batch.delay_max_secs", 7)
	v.SetDefault("batch.output_dir", "data/companies")
	v.SetDefault("resolve.requests_per_second", 0.5)
	v.SetDefault("resolve.concurrency", 1)
	v.SetDefault("verify.model", "claude-haiku-4-5-20251001")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "data/runs.db")
	v.SetDefault("server.port", 8080)
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

// Validate checks the fields a command mode depends on. Modes: scrape,
// resolve, serve.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Batch.DelayMinSecs >= 0, "batch.delay_min_secs must be >= 0")
	check(c.Batch.DelayMaxSecs >= c.Batch.DelayMinSecs, "batch.delay_max_secs must be >= batch.delay_min_secs")
	check(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres", "store.driver must be sqlite or postgres")
	if c.Store.Driver == "postgres" {
		check(c.Store.DatabaseURL != "", "store.database_url is required for the postgres driver")
	}

	switch mode {
	case "scrape":
		check(c.Session.Email != "", "session.email is required (set LINKEDIN_EMAIL)")
		check(c.Session.Password != "", "session.password is required (set LINKEDIN_PASSWORD)")
		if c.Verify.Enabled {
			check(c.Verify.Key != "", "verify.key is required when verify.enabled (set ANTHROPIC_API_KEY)")
		}
	case "resolve":
		if c.Verify.Enabled {
			check(c.Verify.Key != "", "verify.key is required when verify.enabled (set ANTHROPIC_API_KEY)")
		}
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
	case "runs":
		// store checks above suffice
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
