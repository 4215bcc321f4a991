package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/tuowzz/lazada-bot/internal/line"
	"github.com/tuowzz/lazada-bot/internal/models"
)

type fakeResolver struct {
	result   models.ResolutionResult
	keywords []string
	panics   bool
}

func (f *fakeResolver) Resolve(_ context.Context, keyword string) models.ResolutionResult {
	if f.panics {
		panic("resolver exploded")
	}
	f.keywords = append(f.keywords, keyword)
	return f.result
}

type reply struct {
	token string
	text  string
}

type fakeReplier struct {
	err     error
	replies []reply
}

func (f *fakeReplier) Reply(_ context.Context, replyToken, text string) (*line.Delivery, error) {
	f.replies = append(f.replies, reply{replyToken, text})
	if f.err != nil {
		return &line.Delivery{Attempts: 3, StatusCode: 503}, f.err
	}
	return &line.Delivery{Attempts: 1, StatusCode: 200}, nil
}

func setupWebhookApp(r Resolver, rp Replier) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	app.Use(recover.New())
	h := NewWebhookHandler(r, rp, nil, nil, nil)
	app.Post("/webhook", h.Handle)
	return app
}

type envelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func post(t *testing.T, app *fiber.App, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("response %q is not JSON: %v", raw, err)
	}
	return resp.StatusCode, env
}

const textEvent = `{"events":[{"type":"message","replyToken":"rt-1","source":{"userId":"U1"},"message":{"type":"text","text":"  หูฟัง   บลูทูธ "}}]}`

func TestWebhookMatched(t *testing.T) {
	resolver := &fakeResolver{result: models.ResolutionResult{
		URL: "https://s.lazada.co.th/s.abc", DisplayName: "Earbuds", Outcome: models.OutcomeMatched,
	}}
	replier := &fakeReplier{}
	app := setupWebhookApp(resolver, replier)

	status, env := post(t, app, textEvent)
	if status != fiber.StatusOK || env.Status != "ok" {
		t.Fatalf("response = %d %+v, want 200 ok", status, env)
	}
	if len(resolver.keywords) != 1 || resolver.keywords[0] != "หูฟัง บลูทูธ" {
		t.Errorf("resolver keywords = %q", resolver.keywords)
	}
	if len(replier.replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replier.replies))
	}
	got := replier.replies[0]
	if got.token != "rt-1" || got.text != "🛒 Earbuds\n👉 https://s.lazada.co.th/s.abc" {
		t.Errorf("reply = %+v", got)
	}
}

func TestWebhookDispatchFailureStillAcknowledges(t *testing.T) {
	resolver := &fakeResolver{result: models.ResolutionResult{URL: "https://www.lazada.co.th/catalog/?q=x", Degraded: true}}
	replier := &fakeReplier{err: errors.New("line: reply returned status 503")}
	app := setupWebhookApp(resolver, replier)

	status, env := post(t, app, textEvent)
	if status != fiber.StatusOK || env.Status != "ok" {
		t.Errorf("response = %d %+v, want 200 ok", status, env)
	}
}

func TestWebhookInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty events", `{"events":[]}`},
		{"missing events", `{"destination":"U0"}`},
		{"null events", `{"events":null}`},
		{"malformed json", `{"events":[`},
		{"not an object", `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{}
			replier := &fakeReplier{}
			app := setupWebhookApp(resolver, replier)

			status, env := post(t, app, tt.body)
			if status != fiber.StatusBadRequest || env.Status != "error" || env.Error == "" {
				t.Errorf("response = %d %+v, want 400 error", status, env)
			}
			if len(resolver.keywords) != 0 || len(replier.replies) != 0 {
				t.Error("invalid payload must have no side effects")
			}
		})
	}
}

func TestWebhookNonTextEventIsNoop(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"sticker", `{"events":[{"type":"message","replyToken":"rt","message":{"type":"sticker"}}]}`},
		{"follow", `{"events":[{"type":"follow","replyToken":"rt"}]}`},
		{"message without body", `{"events":[{"type":"message","replyToken":"rt"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{}
			replier := &fakeReplier{}
			app := setupWebhookApp(resolver, replier)

			status, env := post(t, app, tt.body)
			if status != fiber.StatusOK || env.Status != "ok" {
				t.Errorf("response = %d %+v, want 200 ok", status, env)
			}
			if len(resolver.keywords) != 0 || len(replier.replies) != 0 {
				t.Error("non-text event must not resolve or reply")
			}
		})
	}
}

func TestWebhookOnlyFirstEventHandled(t *testing.T) {
	resolver := &fakeResolver{result: models.ResolutionResult{URL: "https://s.lazada.co.th/a", Outcome: models.OutcomeMatched}}
	replier := &fakeReplier{}
	app := setupWebhookApp(resolver, replier)

	body := `{"events":[
		{"type":"message","replyToken":"first","message":{"type":"text","text":"one"}},
		{"type":"message","replyToken":"second","message":{"type":"text","text":"two"}}
	]}`
	if status, _ := post(t, app, body); status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(replier.replies) != 1 || replier.replies[0].token != "first" {
		t.Errorf("replies = %+v", replier.replies)
	}
}

func TestWebhookPanicIsInternalError(t *testing.T) {
	app := setupWebhookApp(&fakeResolver{panics: true}, &fakeReplier{})

	status, env := post(t, app, textEvent)
	if status != fiber.StatusInternalServerError || env.Status != "error" {
		t.Errorf("response = %d %+v, want 500 error", status, env)
	}
}
