package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"

	"charitybot/pkg/logger"
)

type OpenAIProvider struct {
	apiBase      string
	extractModel string
	lookupModel  string
	timeout      time.Duration
	client       openai.Client
}

func NewOpenAIProvider(apiKey, apiBase, extractModel, lookupModel string, timeout time.Duration) *OpenAIProvider {
	normalizedBase := normalizeAPIBase(apiBase)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		// One attempt per call; a new reaction is the only retry.
		option.WithMaxRetries(0),
	}
	if normalizedBase != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(normalizedBase))
	}

	return &OpenAIProvider{
		apiBase:      normalizedBase,
		extractModel: extractModel,
		lookupModel:  lookupModel,
		timeout:      timeout,
		client:       openai.NewClient(clientOpts...),
	}
}

func (p *OpenAIProvider) ID() string { return "openai" }

func (p *OpenAIProvider) ExtractName(ctx context.Context, text string) Result[string] {
	logger.DebugCF("provider", "OpenAI extraction request", map[string]interface{}{
		"model":                          p.extractModel,
		logger.FieldMessageContentLength: len(text),
	})

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.extractModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractSystemPrompt),
			openai.UserMessage(buildExtractPrompt(text)),
		},
		MaxTokens:   param.NewOpt(int64(50)),
		Temperature: param.NewOpt(0.0),
	})
	if err != nil {
		return Failed[string](fmt.Errorf("failed to extract charity name from message: %w", err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Empty[string]()
	}
	return normalizeExtractedName(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) Lookup(ctx context.Context, name string) Result[*OrganizationRecord] {
	logger.InfoCF("provider", "Looking up charity", map[string]interface{}{
		logger.FieldName: name,
		"model":          p.lookupModel,
	})

	resp, err := p.client.Responses.New(ctx, buildLookupParams(p.lookupModel, name))
	if err != nil {
		return Failed[*OrganizationRecord](fmt.Errorf("failed to lookup charity %q: %w", name, err))
	}
	return mapLookupResponse(resp, name)
}

// buildLookupParams restricts web search to lookupAllowedDomains and asks for
// the charity_information schema.
func buildLookupParams(model, name string) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(buildLookupPrompt(name)),
		},
		Tools: []responses.ToolUnionParam{{
			OfWebSearch: &responses.WebSearchToolParam{
				Type:              responses.WebSearchToolTypeWebSearch,
				SearchContextSize: responses.WebSearchToolSearchContextSizeLow,
				Filters: responses.WebSearchToolFiltersParam{
					AllowedDomains: lookupAllowedDomains,
				},
			},
		}},
		Include: []responses.ResponseIncludable{responses.ResponseIncludableWebSearchCallActionSources},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "charity_information",
					Description: param.NewOpt("Structured information about a UK charity"),
					Schema:      organizationSchema,
					Strict:      param.NewOpt(true),
				},
			},
		},
	}
}

func mapLookupResponse(resp *responses.Response, name string) Result[*OrganizationRecord] {
	if resp == nil {
		return Empty[*OrganizationRecord]()
	}

	text := resp.OutputText()
	record, err := parseOrganizationJSON(text, name)
	if errors.Is(err, ErrNoContent) {
		logger.InfoCF("provider", "No response content received", map[string]interface{}{
			logger.FieldName: name,
		})
		return Empty[*OrganizationRecord]()
	}
	if err != nil {
		logger.WarnCF("provider", "Lookup response was not valid JSON", map[string]interface{}{
			logger.FieldName:    name,
			logger.FieldPreview: truncatePreview(text, 200),
		})
		return Failed[*OrganizationRecord](err)
	}

	// Titled annotations first; search sources only add URLs not yet cited.
	for _, item := range resp.Output {
		for _, content := range item.Content {
			for _, a := range content.Annotations {
				if a.Type != "url_citation" {
					continue
				}
				if c, ok := newCitation(a.URL, a.Title, ""); ok {
					record.Citations = appendCitation(record.Citations, c)
				}
			}
		}
	}
	for _, item := range resp.Output {
		if item.Type != "web_search_call" {
			continue
		}
		for _, src := range item.Action.Sources {
			if c, ok := newCitation(src.URL, "", ""); ok {
				record.Citations = appendCitation(record.Citations, c)
			}
		}
	}
	return Found(record)
}

func normalizeAPIBase(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return strings.TrimRight(trimmed, "/")
	}

	path := strings.TrimRight(u.Path, "/")
	for _, suffix := range []string{
		"/chat/completions",
		"/chat",
		"/responses",
	} {
		if strings.HasSuffix(path, suffix) {
			path = strings.TrimSuffix(path, suffix)
			break
		}
	}

	u.Path = path
	return strings.TrimRight(u.String(), "/") + "/"
}

func truncatePreview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	return s[:maxLen]
}
