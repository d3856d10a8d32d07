package pipeline

import (
	"context"

	"charitybot/pkg/providers"
	"charitybot/pkg/report"
)

// PreviewResult carries the intermediate values of a preview run.
type PreviewResult struct {
	Message       string
	ExtractedName string
	Record        *providers.OrganizationRecord
	Report        string
	ErrorReport   string
	// Failure is a short description when the run did not produce a report.
	Failure string
	// Err is the collaborator error behind Failure, if any.
	Err error
}

// Success reports whether a record or not_found report was rendered.
func (p PreviewResult) Success() bool {
	return p.Failure == "" && p.Report != ""
}

// Extracted reports whether the extractor produced a name.
func (p PreviewResult) Extracted() bool {
	return p.ExtractedName != ""
}

// Preview runs extract, lookup and render on message without touching Slack.
// An extractor failure is returned as the error; other failures are recorded
// on the result.
func Preview(ctx context.Context, extractor providers.NameExtractor, lookup providers.LookupProvider, message string) (PreviewResult, error) {
	res := PreviewResult{Message: message}

	extracted := extractor.ExtractName(ctx, message)
	switch extracted.Kind {
	case providers.KindFailure:
		return res, extracted.Err
	case providers.KindEmpty:
		res.Failure = "Could not extract charity name from message"
		return res, nil
	}
	res.ExtractedName = extracted.Value

	found := lookup.Lookup(ctx, res.ExtractedName)
	switch found.Kind {
	case providers.KindFailure:
		res.Failure = "Charity lookup failed"
		res.Err = found.Err
		res.ErrorReport = report.RenderError(res.ExtractedName, report.ErrorAPI)
	case providers.KindEmpty:
		res.Report = report.RenderReport(nil, res.ExtractedName)
	default:
		res.Record = found.Value
		res.Report = report.RenderReport(found.Value, res.ExtractedName)
	}
	return res, nil
}
