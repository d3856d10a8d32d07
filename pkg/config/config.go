package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultTriggerEmoji = "question"
)

// Config is built once at startup and shared read-only afterwards.
type Config struct {
	Slack    SlackConfig
	Provider ProviderConfig
	App      AppConfig
	Gateway  GatewayConfig
	Logging  LoggingConfig
}

type SlackConfig struct {
	BotToken      string `env:"SLACK_BOT_TOKEN"`
	SigningSecret string `env:"SLACK_SIGNING_SECRET"`
	APIURL        string `env:"SLACK_API_URL"`
}

type ProviderConfig struct {
	Name         string `env:"CHARITYBOT_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIBase   string `env:"OPENAI_API_BASE"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiBase   string `env:"GEMINI_API_BASE"`
	ExtractModel string `env:"CHARITYBOT_EXTRACT_MODEL"`
	LookupModel  string `env:"CHARITYBOT_LOOKUP_MODEL"`
	TimeoutSec   int    `env:"CHARITYBOT_PROVIDER_TIMEOUT_SEC" envDefault:"90"`
}

type AppConfig struct {
	TriggerEmoji string `env:"TRIGGER_EMOJI" envDefault:"question"`
	DevMode      bool   `env:"CHARITYBOT_DEV_MODE" envDefault:"false"`
}

type GatewayConfig struct {
	Host string `env:"CHARITYBOT_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"CHARITYBOT_PORT" envDefault:"3000"`
}

type LoggingConfig struct {
	Level         string `env:"CHARITYBOT_LOG_LEVEL" envDefault:"info"`
	File          string `env:"CHARITYBOT_LOG_FILE"`
	MaxSizeMB     int    `env:"CHARITYBOT_LOG_MAX_SIZE_MB" envDefault:"20"`
	RetentionDays int    `env:"CHARITYBOT_LOG_RETENTION_DAYS" envDefault:"3"`
}

// Load reads the process environment, after merging any dotenv files found at
// paths (missing files are skipped), and validates the result.
func Load(paths ...string) (*Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg)
}

// LoadFrom builds a Config from an explicit variable set instead of the
// process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.TriggerEmoji == "" {
		cfg.App.TriggerEmoji = DefaultTriggerEmoji
	}
	if cfg.Provider.ExtractModel == "" {
		cfg.Provider.ExtractModel = defaultExtractModel(cfg.Provider.Name)
	}
	if cfg.Provider.LookupModel == "" {
		cfg.Provider.LookupModel = defaultLookupModel(cfg.Provider.Name)
	}
}

func defaultExtractModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-flash"
	}
	return "gpt-4.1-mini"
}

func defaultLookupModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-flash"
	}
	return "gpt-5"
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSec) * time.Second
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}
