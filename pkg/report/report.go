// Package report renders organization records and pipeline errors as Slack
// mrkdwn text.
package report

import (
	"fmt"
	"net/url"
	"strings"

	"charitybot/pkg/providers"
)

// MaxLength is the rune ceiling applied before the truncation marker.
const MaxLength = 39000

const (
	TruncationMarker = "... _[truncated due to Slack message limit]_"

	maxAreas     = 5
	maxCitations = 3
)

type ErrorKind string

const (
	ErrorNotFound         ErrorKind = "not_found"
	ErrorExtractionFailed ErrorKind = "extraction_failed"
	ErrorAPI              ErrorKind = "api_error"
	ErrorGeneric          ErrorKind = "generic"
)

// RenderReport formats a lookup result. A nil record renders the not_found
// template for originalName.
func RenderReport(record *providers.OrganizationRecord, originalName string) string {
	if record == nil {
		return RenderError(originalName, ErrorNotFound)
	}

	var sb strings.Builder
	name := record.Name
	if strings.TrimSpace(name) == "" {
		name = originalName
	}
	fmt.Fprintf(&sb, "*%s*\n\n", name)

	if record.Summary != "" && record.Summary != "Information not available" {
		fmt.Fprintf(&sb, "📝 %s\n\n", record.Summary)
	}
	if record.RegistrationID != nil {
		fmt.Fprintf(&sb, "🆔 *Registration ID:* %s\n\n", *record.RegistrationID)
	}
	if record.FoundedYear != nil {
		fmt.Fprintf(&sb, "🗓️ *Founded:* %s\n\n", *record.FoundedYear)
	}
	if record.Website != nil {
		fmt.Fprintf(&sb, "🌐 *Website:* <%s|%s>\n\n", *record.Website, displayDomain(*record.Website))
	}
	if record.Activities != "" && record.Activities != "Information not available" {
		fmt.Fprintf(&sb, "*What they do:* %s\n\n", record.Activities)
	}

	if n := len(record.Areas); n > 0 {
		shown := record.Areas
		more := ""
		if n > maxAreas {
			shown = shown[:maxAreas]
			more = fmt.Sprintf(" (+%d more)", n-maxAreas)
		}
		fmt.Fprintf(&sb, "📍 *Areas served:* %s%s\n\n", strings.Join(shown, ", "), more)
	}

	if n := len(record.Citations); n > 0 {
		sb.WriteString("🔗 *Sources:*\n")
		for i, c := range record.Citations {
			if i == maxCitations {
				break
			}
			fmt.Fprintf(&sb, "• <%s|%s>\n", c.URL, c.Title)
		}
		if n > maxCitations {
			fmt.Fprintf(&sb, "  _... and %d more sources_\n", n-maxCitations)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("_Information gathered from web search_\n")
	return Truncate(sb.String())
}

// RenderError returns the user-facing text for a failed run. Unknown kinds
// render the generic template.
func RenderError(name string, kind ErrorKind) string {
	var text string
	switch kind {
	case ErrorNotFound:
		text = fmt.Sprintf("❓ I couldn't find reliable information about \"%s\" from available sources.\n\n", name) +
			"💡 *Try:*\n" +
			"• Check the spelling\n" +
			"• Use the official charity name\n" +
			"• Try searching for key words from the charity name"
	case ErrorExtractionFailed:
		text = "🤔 I couldn't identify a charity name in that message.\n\n" +
			"💡 *Tip:* Make sure to mention a specific charity or organization name in your message."
	case ErrorAPI:
		text = "⚠️ Sorry, I'm having trouble searching for charity information right now.\n\n" +
			"🔄 Please try again in a moment."
	default:
		text = fmt.Sprintf("❌ Something went wrong while searching for \"%s\".\n\n", name) +
			"🔄 Please try again later."
	}
	return Truncate(text)
}

// Truncate cuts text longer than MaxLength runes and appends TruncationMarker.
// Shorter text is returned unchanged.
func Truncate(text string) string {
	count := 0
	for i := range text {
		if count == MaxLength {
			return text[:i] + TruncationMarker
		}
		count++
	}
	return text
}

func displayDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "Visit Website"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
