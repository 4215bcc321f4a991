package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/tuowzz/lazada-bot/internal/models"
)

type stubResolver struct {
	keywords []string
}

func (s *stubResolver) Resolve(_ context.Context, keyword string) models.ResolutionResult {
	s.keywords = append(s.keywords, keyword)
	return models.ResolutionResult{URL: "https://s.lazada.co.th/x", DisplayName: "X", Outcome: models.OutcomeMatched}
}

func setupApp(r Resolver) *fiber.App {
	app := fiber.New()
	h := NewResolveHandler(r)
	app.Get("/api/resolve", h.Resolve)
	app.Get("/api/resolve/:keyword", h.Resolve)
	return app
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		keyword  string
		wantMode string
	}{
		{"path keyword", "/api/resolve/headphones", "headphones", "keyword"},
		{"query keyword", "/api/resolve?q=%E0%B8%AB%E0%B8%B9%E0%B8%9F%E0%B8%B1%E0%B8%87", "หูฟัง", "keyword"},
		{"product id", "/api/resolve/4105390617", "4105390617", "product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubResolver{}
			app := setupApp(stub)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}

			var body struct {
				Status string                 `json:"status"`
				Data   models.ResolveResponse `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != "ok" || body.Data.Keyword != tt.keyword || body.Data.URL != "https://s.lazada.co.th/x" {
				t.Errorf("body = %+v", body)
			}
			if body.Data.LookupMode != tt.wantMode {
				t.Errorf("lookup_mode = %q, want %q", body.Data.LookupMode, tt.wantMode)
			}
			if len(stub.keywords) != 1 || stub.keywords[0] != tt.keyword {
				t.Errorf("resolver called with %v", stub.keywords)
			}
		})
	}
}

func TestResolveEmptyKeyword(t *testing.T) {
	stub := &stubResolver{}
	app := setupApp(stub)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/resolve?q=%20%20", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var env models.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env != models.Failure("keyword is required") {
		t.Errorf("envelope = %+v", env)
	}
	if len(stub.keywords) != 0 {
		t.Error("resolver must not run for an empty keyword")
	}
}
