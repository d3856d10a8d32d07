package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"charitybot/pkg/pipeline"
	"charitybot/pkg/providers"
)

func askCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Run extraction, lookup and rendering for a message without Slack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			provider, err := providers.CreateProvider(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("create provider: %w", err)
			}

			message := strings.Join(args, " ")
			res, err := pipeline.Preview(cmd.Context(), provider, provider, message)
			if err != nil {
				return fmt.Errorf("extract charity name: %w", err)
			}
			if asJSON {
				return writePreviewJSON(cmd.OutOrStdout(), res)
			}
			printPreview(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw preview result as JSON")
	return cmd
}

func printPreview(w io.Writer, res pipeline.PreviewResult) {
	fmt.Fprintln(w, titleStyle.Render(logo+" charitybot preview"))
	fmt.Fprintln(w, field("Message", res.Message))

	if !res.Extracted() {
		fmt.Fprintln(w, field("Extracted name", errorStyle.Render("none")))
		fmt.Fprintln(w, errorStyle.Render(res.Failure))
		return
	}
	fmt.Fprintln(w, field("Extracted name", okStyle.Render(res.ExtractedName)))

	if res.Failure != "" {
		fmt.Fprintln(w, field("Lookup", errorStyle.Render(res.Failure)))
		if res.Err != nil {
			fmt.Fprintln(w, field("Details", res.Err.Error()))
		}
		fmt.Fprintln(w, boxStyle.Render(res.ErrorReport))
		return
	}
	if res.Record != nil {
		fmt.Fprintln(w, field("Citations", fmt.Sprintf("%d", len(res.Record.Citations))))
	}
	fmt.Fprintln(w, boxStyle.Render(res.Report))
}

type previewJSON struct {
	Success       bool                          `json:"success"`
	Message       string                        `json:"message"`
	ExtractedName *string                       `json:"extractedName"`
	CharityData   *providers.OrganizationRecord `json:"charityData,omitempty"`
	Report        string                        `json:"report,omitempty"`
	Error         string                        `json:"error,omitempty"`
	ErrorReport   string                        `json:"errorReport,omitempty"`
	Details       string                        `json:"details,omitempty"`
}

func writePreviewJSON(w io.Writer, res pipeline.PreviewResult) error {
	out := previewJSON{
		Success:     res.Success(),
		Message:     res.Message,
		CharityData: res.Record,
		Report:      res.Report,
		Error:       res.Failure,
		ErrorReport: res.ErrorReport,
	}
	if res.Extracted() {
		out.ExtractedName = &res.ExtractedName
	}
	if res.Err != nil {
		out.Details = res.Err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
