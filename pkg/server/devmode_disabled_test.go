//go:build !devmode

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"charitybot/pkg/pipeline"
)

func TestDevModeUnreachableWithoutBuildTag(t *testing.T) {
	called := false
	preview := func(context.Context, string) (pipeline.PreviewResult, error) {
		called = true
		return pipeline.PreviewResult{}, nil
	}
	s := newTestServer(&fakeDispatcher{}, WithPreview(preview))
	s.config.App.DevMode = true

	if DevModeCompiled() || s.devModeActive() {
		t.Fatalf("dev mode must be compiled out")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"message":"Please research Oxfam charity"}`))
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned dev request should be rejected, got %d", rec.Code)
	}
	if called {
		t.Fatalf("preview must not run")
	}
}
