package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"charitybot/pkg/config"
	"charitybot/pkg/logger"
)

type globalOptions struct {
	envFiles []string
	debug    bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle = lipgloss.NewStyle().Faint(true).Width(22)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg, opts.debug)
	return cfg, nil
}

func configureLogging(cfg *config.Config, debug bool) {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logger.INFO
	}
	if debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)

	if cfg.Logging.File == "" {
		logger.DisableFileLogging()
		return
	}
	if err := logger.EnableFileLoggingWithRotation(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.RetentionDays); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to enable file logging: %v\n", err)
	}
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func maskSecret(v string) string {
	switch {
	case v == "":
		return errorStyle.Render("missing")
	case len(v) <= 8:
		return okStyle.Render("set")
	default:
		return okStyle.Render(v[:4] + "…" + v[len(v)-2:])
	}
}
