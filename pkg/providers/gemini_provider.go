package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"charitybot/pkg/logger"
)

type GeminiProvider struct {
	client       *genai.Client
	extractModel string
	lookupModel  string
}

// NewGeminiProvider talks to the Gemini API. An empty baseURL keeps the
// public endpoint.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL, extractModel, lookupModel string, timeout time.Duration) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{
		client:       client,
		extractModel: extractModel,
		lookupModel:  lookupModel,
	}, nil
}

func (g *GeminiProvider) ID() string { return "gemini" }

func (g *GeminiProvider) ExtractName(ctx context.Context, text string) Result[string] {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(extractSystemPrompt)},
		},
		Temperature:     genai.Ptr(float32(0)),
		MaxOutputTokens: 50,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.extractModel, userText(buildExtractPrompt(text)), config)
	if err != nil {
		return Failed[string](fmt.Errorf("failed to extract charity name from message: %w", err))
	}
	return normalizeExtractedName(responseText(resp))
}

func (g *GeminiProvider) Lookup(ctx context.Context, name string) Result[*OrganizationRecord] {
	logger.InfoCF("provider", "Looking up charity", map[string]interface{}{
		logger.FieldName: name,
		"model":          g.lookupModel,
	})

	config := &genai.GenerateContentConfig{
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		Temperature: genai.Ptr(float32(0.2)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.lookupModel, userText(buildGroundedLookupPrompt(name)), config)
	if err != nil {
		return Failed[*OrganizationRecord](fmt.Errorf("failed to lookup charity %q: %w", name, err))
	}
	return mapGroundedResponse(resp, name)
}

func mapGroundedResponse(resp *genai.GenerateContentResponse, name string) Result[*OrganizationRecord] {
	text := responseText(resp)
	record, err := parseOrganizationJSON(text, name)
	if errors.Is(err, ErrNoContent) {
		return Empty[*OrganizationRecord]()
	}
	if err != nil {
		logger.WarnCF("provider", "Lookup response was not valid JSON", map[string]interface{}{
			logger.FieldName:    name,
			logger.FieldPreview: truncatePreview(text, 200),
		})
		return Failed[*OrganizationRecord](err)
	}

	candidate := resp.Candidates[0]
	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			if c, ok := newCitation(chunk.Web.URI, chunk.Web.Title, ""); ok {
				record.Citations = appendCitation(record.Citations, c)
			}
		}
	}
	return Found(record)
}

func userText(prompt string) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
