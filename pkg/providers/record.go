package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const notAvailable = "Not available"

var ErrNoContent = errors.New("provider returned no content")

const extractSystemPrompt = "You extract UK charity names from text. Return only the charity name or 'NONE' if no charity is mentioned. Focus on registered charities, organizations, and nonprofits."

var lookupAllowedDomains = []string{
	"charitycommission.gov.uk",
	"gov.uk",
	"charitybase.uk",
	"charitynavigator.org",
	"justgiving.com",
	"cafonline.org",
}

var organizationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"official_name": map[string]interface{}{
			"type":        "string",
			"description": "The official registered name of the charity",
		},
		"registration_number": map[string]interface{}{
			"type":        "string",
			"description": "The charity registration number or ID (use 'Not available' if unknown)",
		},
		"activities": map[string]interface{}{
			"type":        "string",
			"description": "Description of the charity's main activities, purposes, and work",
		},
		"areas_of_operation": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Geographical areas or regions where the charity operates",
		},
		"website": map[string]interface{}{
			"type":        "string",
			"description": "Official website URL (use 'Not available' if unknown)",
		},
		"founded_year": map[string]interface{}{
			"type":        "string",
			"description": "Year the charity was founded (use 'Not available' if unknown)",
		},
		"summary": map[string]interface{}{
			"type":        "string",
			"description": "Brief summary of the charity and their impact",
		},
	},
	"required":             []string{"official_name", "registration_number", "activities", "areas_of_operation", "website", "founded_year", "summary"},
	"additionalProperties": false,
}

type organizationPayload struct {
	OfficialName       string   `json:"official_name"`
	RegistrationNumber string   `json:"registration_number"`
	Activities         string   `json:"activities"`
	AreasOfOperation   []string `json:"areas_of_operation"`
	Website            string   `json:"website"`
	FoundedYear        string   `json:"founded_year"`
	Summary            string   `json:"summary"`
}

func buildExtractPrompt(text string) string {
	return fmt.Sprintf("Extract the charity or organization name from this message. Return only the name, or \"NONE\" if no charity is mentioned:\n\nMessage: %q\n\nCharity name:", text)
}

func buildLookupPrompt(name string) string {
	return fmt.Sprintf("Find detailed information about the UK charity %q. Search official sources and provide accurate, up-to-date information about the charity's official name, registration details, activities, geographical focus, and mission.", name)
}

// buildGroundedLookupPrompt asks for the schema inline, for backends that
// cannot combine search grounding with a response schema.
func buildGroundedLookupPrompt(name string) string {
	fields, _ := json.MarshalIndent(organizationSchema["properties"], "", "  ")
	return buildLookupPrompt(name) +
		"\n\nPrefer these sources: " + strings.Join(lookupAllowedDomains, ", ") + "." +
		"\nRespond with a single JSON object and nothing else, with exactly these fields:\n" + string(fields)
}

// normalizeExtractedName maps raw model output to a Result. "NONE" and blank
// answers are Empty.
func normalizeExtractedName(raw string) Result[string] {
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, "\"'`“”")
	name = strings.TrimSpace(strings.TrimSuffix(name, "."))
	if name == "" || strings.EqualFold(name, "NONE") {
		return Empty[string]()
	}
	return Found(name)
}

// parseOrganizationJSON turns a model's JSON answer into a record. Blank output
// is ErrNoContent; anything that is not the expected object is a parse error.
func parseOrganizationJSON(raw string, queried string) (*OrganizationRecord, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, ErrNoContent
	}

	var payload organizationPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse organization JSON: %w", err)
	}

	name := strings.TrimSpace(payload.OfficialName)
	if name == "" {
		name = queried
	}
	activities := strings.TrimSpace(payload.Activities)
	if activities == "" {
		activities = "Information not available"
	}
	areas := make([]string, 0, len(payload.AreasOfOperation))
	for _, a := range payload.AreasOfOperation {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}

	return &OrganizationRecord{
		Name:           name,
		RegistrationID: optional(payload.RegistrationNumber),
		Activities:     activities,
		Areas:          areas,
		Website:        optional(payload.Website),
		FoundedYear:    optional(payload.FoundedYear),
		Summary:        strings.TrimSpace(payload.Summary),
		Citations:      []Citation{},
	}, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, notAvailable) {
		return nil
	}
	return &v
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// newCitation fills a missing title with the source's host name.
func newCitation(rawURL, title, snippet string) (Citation, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Citation{}, false
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domainName(rawURL)
	}
	return Citation{URL: rawURL, Title: title, Snippet: strings.TrimSpace(snippet)}, true
}

func appendCitation(list []Citation, c Citation) []Citation {
	for _, existing := range list {
		if existing.URL == c.URL {
			return list
		}
	}
	return append(list, c)
}

func domainName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		if len(rawURL) > 50 {
			return rawURL[:50] + "..."
		}
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
