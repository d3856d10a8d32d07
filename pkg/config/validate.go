package config

import (
	"fmt"
	"strings"

	"charitybot/pkg/logger"
)

// Validate returns configuration problems found in cfg.
// It does not mutate cfg.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if strings.TrimSpace(cfg.Slack.BotToken) == "" {
		errs = append(errs, fmt.Errorf("SLACK_BOT_TOKEN is required"))
	}
	if strings.TrimSpace(cfg.Slack.SigningSecret) == "" {
		errs = append(errs, fmt.Errorf("SLACK_SIGNING_SECRET is required"))
	}

	switch cfg.Provider.Name {
	case ProviderOpenAI:
		if strings.TrimSpace(cfg.Provider.OpenAIAPIKey) == "" {
			errs = append(errs, fmt.Errorf("OPENAI_API_KEY is required when CHARITYBOT_PROVIDER=openai"))
		}
	case ProviderGemini:
		if strings.TrimSpace(cfg.Provider.GeminiAPIKey) == "" {
			errs = append(errs, fmt.Errorf("GEMINI_API_KEY is required when CHARITYBOT_PROVIDER=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("CHARITYBOT_PROVIDER must be one of: openai, gemini"))
	}
	if cfg.Provider.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("CHARITYBOT_PROVIDER_TIMEOUT_SEC must be > 0"))
	}

	if strings.TrimSpace(cfg.App.TriggerEmoji) == "" || strings.Contains(cfg.App.TriggerEmoji, ":") {
		errs = append(errs, fmt.Errorf("TRIGGER_EMOJI must be a bare reaction name without colons"))
	}

	if cfg.Gateway.Port <= 0 || cfg.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("CHARITYBOT_PORT must be in 1..65535"))
	}

	if _, err := logger.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("CHARITYBOT_LOG_LEVEL: %w", err))
	}
	if cfg.Logging.File != "" {
		if cfg.Logging.MaxSizeMB <= 0 {
			errs = append(errs, fmt.Errorf("CHARITYBOT_LOG_MAX_SIZE_MB must be > 0"))
		}
		if cfg.Logging.RetentionDays <= 0 {
			errs = append(errs, fmt.Errorf("CHARITYBOT_LOG_RETENTION_DAYS must be > 0"))
		}
	}

	return errs
}
