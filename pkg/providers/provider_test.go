package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"charitybot/pkg/config"
)

func TestNormalizeExtractedName(t *testing.T) {
	tests := []struct {
		in   string
		kind ResultKind
		want string
	}{
		{"Oxfam", KindValue, "Oxfam"},
		{"  \"British Red Cross\"\n", KindValue, "British Red Cross"},
		{"Save the Children.", KindValue, "Save the Children"},
		{"NONE", KindEmpty, ""},
		{"none", KindEmpty, ""},
		{"   ", KindEmpty, ""},
	}
	for _, tt := range tests {
		got := normalizeExtractedName(tt.in)
		if got.Kind != tt.kind || got.Value != tt.want {
			t.Fatalf("normalizeExtractedName(%q) = (%s, %q), want (%s, %q)", tt.in, got.Kind, got.Value, tt.kind, tt.want)
		}
	}
}

func TestParseOrganizationJSON_NotAvailableBecomesNil(t *testing.T) {
	raw := "```json\n" + `{
		"official_name": "Oxfam GB",
		"registration_number": "Not available",
		"activities": "Fights poverty",
		"areas_of_operation": ["UK", " ", "Worldwide"],
		"website": "https://www.oxfam.org.uk",
		"founded_year": "Not available",
		"summary": "International confederation"
	}` + "\n```"

	rec, err := parseOrganizationJSON(raw, "Oxfam")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Oxfam GB" {
		t.Fatalf("name mismatch: %q", rec.Name)
	}
	if rec.RegistrationID != nil || rec.FoundedYear != nil {
		t.Fatalf("expected unavailable fields to be nil: %+v", rec)
	}
	if rec.Website == nil || *rec.Website != "https://www.oxfam.org.uk" {
		t.Fatalf("website mismatch: %v", rec.Website)
	}
	if len(rec.Areas) != 2 {
		t.Fatalf("blank areas should be dropped, got %v", rec.Areas)
	}
}

func TestParseOrganizationJSON_FallbacksAndErrors(t *testing.T) {
	rec, err := parseOrganizationJSON(`{"official_name":"","activities":""}`, "Oxfam")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "Oxfam" || rec.Activities != "Information not available" {
		t.Fatalf("fallbacks not applied: %+v", rec)
	}

	if _, err := parseOrganizationJSON("  ", "Oxfam"); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if _, err := parseOrganizationJSON("I could not find that charity.", "Oxfam"); err == nil || errors.Is(err, ErrNoContent) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNewCitationFallsBackToDomain(t *testing.T) {
	c, ok := newCitation("https://www.charitycommission.gov.uk/charity/202918", "", "")
	if !ok || c.Title != "charitycommission.gov.uk" {
		t.Fatalf("unexpected citation: %+v ok=%v", c, ok)
	}
	if _, ok := newCitation(" ", "title", ""); ok {
		t.Fatalf("empty url should be rejected")
	}

	list := appendCitation(nil, c)
	list = appendCitation(list, c)
	if len(list) != 1 {
		t.Fatalf("duplicate citation should be skipped, got %d", len(list))
	}
}

func TestNormalizeAPIBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"http://localhost:8080/v1/chat/completions", "http://localhost:8080/v1/"},
		{"http://localhost:8080/v1/responses", "http://localhost:8080/v1/"},
		{"http://localhost:8080/v1", "http://localhost:8080/v1/"},
	}
	for _, tt := range tests {
		if got := normalizeAPIBase(tt.in); got != tt.want {
			t.Fatalf("normalizeAPIBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func completionJSON(content string, annotations string) string {
	if annotations == "" {
		annotations = "[]"
	}
	c, _ := json.Marshal(content)
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"test",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(c) +
		`,"annotations":` + annotations + `}}]}`
}

func responseJSON(content string, annotations string, sources string) string {
	if annotations == "" {
		annotations = "[]"
	}
	if sources == "" {
		sources = "[]"
	}
	c, _ := json.Marshal(content)
	return `{"id":"resp_1","object":"response","created_at":1,"model":"test","status":"completed","output":[` +
		`{"type":"web_search_call","id":"ws_1","status":"completed","action":{"type":"search","query":"charity","sources":` + sources + `}},` +
		`{"type":"message","id":"msg_1","role":"assistant","status":"completed","content":[{"type":"output_text","text":` + string(c) +
		`,"annotations":` + annotations + `}]}]}`
}

type fakeOpenAI struct {
	calls    atomic.Int32
	status   int
	path     string
	body     string
	lastBody atomic.Value
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	raw, _ := io.ReadAll(r.Body)
	f.lastBody.Store(string(raw))
	want := f.path
	if want == "" {
		want = "/v1/chat/completions"
	}
	if r.URL.Path != want {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	io.WriteString(w, f.body)
}

func newTestOpenAI(t *testing.T, fake *fakeOpenAI) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("sk-test", srv.URL+"/v1", "extract-model", "lookup-model", 5*time.Second)
}

func TestOpenAIExtractName(t *testing.T) {
	fake := &fakeOpenAI{body: completionJSON("Oxfam", "")}
	p := newTestOpenAI(t, fake)

	got := p.ExtractName(context.Background(), "Please research Oxfam charity")
	if got.Kind != KindValue || got.Value != "Oxfam" {
		t.Fatalf("unexpected result: %+v", got)
	}
	sent, _ := fake.lastBody.Load().(string)
	if !strings.Contains(sent, `"model":"extract-model"`) || !strings.Contains(sent, "Please research Oxfam charity") {
		t.Fatalf("unexpected request body: %s", sent)
	}
}

func TestOpenAIExtractNameNone(t *testing.T) {
	fake := &fakeOpenAI{body: completionJSON("NONE", "")}
	p := newTestOpenAI(t, fake)

	if got := p.ExtractName(context.Background(), "lunch at noon?"); got.Kind != KindEmpty {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestOpenAIFailureIsSingleAttempt(t *testing.T) {
	fake := &fakeOpenAI{path: "/v1/responses", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`}
	p := newTestOpenAI(t, fake)

	got := p.Lookup(context.Background(), "Oxfam")
	if got.Kind != KindFailure || got.Err == nil {
		t.Fatalf("expected failure, got %+v", got)
	}
	if !strings.Contains(got.Err.Error(), "Oxfam") {
		t.Fatalf("error should name the charity: %v", got.Err)
	}
	if n := fake.calls.Load(); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestBuildLookupParamsRestrictsSearchDomains(t *testing.T) {
	raw, err := json.Marshal(buildLookupParams("gpt-5", "Oxfam"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var req struct {
		Model string `json:"model"`
		Input string `json:"input"`
		Tools []struct {
			Type    string `json:"type"`
			Filters struct {
				AllowedDomains []string `json:"allowed_domains"`
			} `json:"filters"`
		} `json:"tools"`
		Include []string `json:"include"`
		Text    struct {
			Format struct {
				Type   string `json:"type"`
				Name   string `json:"name"`
				Strict bool   `json:"strict"`
			} `json:"format"`
		} `json:"text"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}

	if req.Model != "gpt-5" || !strings.Contains(req.Input, `"Oxfam"`) {
		t.Fatalf("unexpected model or input: %s", raw)
	}
	if len(req.Tools) != 1 || req.Tools[0].Type != "web_search" {
		t.Fatalf("expected a single web_search tool: %s", raw)
	}
	domains := req.Tools[0].Filters.AllowedDomains
	if strings.Join(domains, ",") != strings.Join(lookupAllowedDomains, ",") {
		t.Fatalf("allowed domains = %v, want %v", domains, lookupAllowedDomains)
	}
	if len(req.Include) != 1 || req.Include[0] != "web_search_call.action.sources" {
		t.Fatalf("search sources should be requested: %v", req.Include)
	}
	if req.Text.Format.Type != "json_schema" || req.Text.Format.Name != "charity_information" || !req.Text.Format.Strict {
		t.Fatalf("unexpected text format: %s", raw)
	}
}

func TestOpenAILookupMapsRecordAndCitations(t *testing.T) {
	content := `{"official_name":"Oxfam GB","registration_number":"202918","activities":"Poverty relief","areas_of_operation":["Worldwide"],"website":"https://www.oxfam.org.uk","founded_year":"1942","summary":"Fights poverty"}`
	annotations := `[
		{"type":"url_citation","url":"https://register-of-charities.charitycommission.gov.uk/charity/202918","title":"Oxfam register entry","start_index":0,"end_index":10}
	]`
	sources := `[
		{"type":"url","url":"https://register-of-charities.charitycommission.gov.uk/charity/202918"},
		{"type":"url","url":"https://www.justgiving.com/oxfam"}
	]`
	fake := &fakeOpenAI{path: "/v1/responses", body: responseJSON(content, annotations, sources)}
	p := newTestOpenAI(t, fake)

	got := p.Lookup(context.Background(), "Oxfam")
	if got.Kind != KindValue {
		t.Fatalf("expected record, got %+v", got)
	}
	rec := got.Value
	if rec.Name != "Oxfam GB" || rec.RegistrationID == nil || *rec.RegistrationID != "202918" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %+v", rec.Citations)
	}
	if rec.Citations[0].Title != "Oxfam register entry" {
		t.Fatalf("annotation title should be kept, got %q", rec.Citations[0].Title)
	}
	if rec.Citations[1].Title != "justgiving.com" {
		t.Fatalf("expected domain fallback title, got %q", rec.Citations[1].Title)
	}
	sent, _ := fake.lastBody.Load().(string)
	if !strings.Contains(sent, `"allowed_domains"`) || !strings.Contains(sent, "charity_information") {
		t.Fatalf("lookup request should carry domain filter and schema: %s", sent)
	}
}

func TestOpenAILookupEmptyAndUnparseable(t *testing.T) {
	empty := newTestOpenAI(t, &fakeOpenAI{path: "/v1/responses", body: responseJSON("", "", "")})
	if got := empty.Lookup(context.Background(), "Oxfam"); got.Kind != KindEmpty {
		t.Fatalf("blank content should be empty, got %+v", got)
	}

	garbled := newTestOpenAI(t, &fakeOpenAI{path: "/v1/responses", body: responseJSON("Sorry, I cannot help.", "", "")})
	if got := garbled.Lookup(context.Background(), "Oxfam"); got.Kind != KindFailure {
		t.Fatalf("unparseable content should be a failure, got %+v", got)
	}
}

func TestCreateProviderOpenAI(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"SLACK_BOT_TOKEN":      "xoxb",
		"SLACK_SIGNING_SECRET": "secret",
		"OPENAI_API_KEY":       "sk",
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	p, err := CreateProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}
	if p.ID() != "openai" {
		t.Fatalf("unexpected provider %q", p.ID())
	}
}
