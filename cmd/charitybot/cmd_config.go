package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"charitybot/pkg/config"
	"charitybot/pkg/server"
)

func verifyConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-config",
		Short: "Check the environment and print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cfg, err := config.Load(opts.envFiles...)
			if err != nil {
				fmt.Fprintln(w, errorStyle.Render("Configuration is invalid:"))
				for _, e := range unwrapJoined(err) {
					fmt.Fprintln(w, "  • "+e.Error())
				}
				return errors.New("configuration check failed")
			}

			fmt.Fprintln(w, titleStyle.Render(logo+" charitybot configuration"))
			fmt.Fprintln(w, field("Slack bot token", maskSecret(cfg.Slack.BotToken)))
			fmt.Fprintln(w, field("Slack signing secret", maskSecret(cfg.Slack.SigningSecret)))
			fmt.Fprintln(w, field("Provider", cfg.Provider.Name))
			switch cfg.Provider.Name {
			case config.ProviderGemini:
				fmt.Fprintln(w, field("Gemini API key", maskSecret(cfg.Provider.GeminiAPIKey)))
			default:
				fmt.Fprintln(w, field("OpenAI API key", maskSecret(cfg.Provider.OpenAIAPIKey)))
			}
			fmt.Fprintln(w, field("Extract model", cfg.Provider.ExtractModel))
			fmt.Fprintln(w, field("Lookup model", cfg.Provider.LookupModel))
			fmt.Fprintln(w, field("Provider timeout", cfg.ProviderTimeout().String()))
			fmt.Fprintln(w, field("Trigger reaction", ":"+cfg.App.TriggerEmoji+":"))
			fmt.Fprintln(w, field("Listen address", cfg.ListenAddr()))
			fmt.Fprintln(w, field("Log level", cfg.Logging.Level))
			fmt.Fprintln(w, field("Dev mode", devModeStatus(cfg.App.DevMode)))
			fmt.Fprintln(w, okStyle.Render("Configuration OK"))
			return nil
		},
	}
}

func devModeStatus(requested bool) string {
	switch {
	case requested && server.DevModeCompiled():
		return errorStyle.Render("enabled (signature checks bypassed)")
	case requested:
		return "requested, not compiled in"
	default:
		return strconv.FormatBool(false)
	}
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
