// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/tuowzz/lazada-bot/internal/db"
)

// TestDB connects to TEST_DATABASE_URL and runs migrations. The test is
// skipped when the variable is unset.
func TestDB(t *testing.T) *db.DB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		database.Pool.Exec(ctx, "DELETE FROM keyword_lookups")
		database.Close()
	})
	return database
}

// LazadaCall is one request received by FakeLazada.
type LazadaCall struct {
	Method string
	Path   string // API path, e.g. /marketing/getlink
	Params url.Values
}

// FakeLazada serves canned Open Platform answers per API path. Queued bodies
// are served in order and the last one repeats. Paths with nothing queued
// answer with an empty success envelope.
type FakeLazada struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string][]string
	calls  []LazadaCall
}

// NewFakeLazada starts a fake closed at test cleanup.
func NewFakeLazada(t *testing.T) *FakeLazada {
	t.Helper()
	f := &FakeLazada{bodies: map[string][]string{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// APIURL is the marketing base URL.
func (f *FakeLazada) APIURL() string { return f.URL + "/rest" }

// AuthURL is the auth base URL.
func (f *FakeLazada) AuthURL() string { return f.URL + "/auth" }

// Queue appends response bodies for apiPath.
func (f *FakeLazada) Queue(apiPath string, bodies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[apiPath] = append(f.bodies[apiPath], bodies...)
}

// Calls returns the requests received so far.
func (f *FakeLazada) Calls() []LazadaCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LazadaCall(nil), f.calls...)
}

// CallsTo returns the requests received for apiPath.
func (f *FakeLazada) CallsTo(apiPath string) []LazadaCall {
	var out []LazadaCall
	for _, c := range f.Calls() {
		if c.Path == apiPath {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeLazada) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	apiPath := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/rest"), "/auth")

	f.mu.Lock()
	f.calls = append(f.calls, LazadaCall{Method: r.Method, Path: apiPath, Params: r.Form})
	body := `{"code":"0","data":{}}`
	if queued := f.bodies[apiPath]; len(queued) > 0 {
		body = queued[0]
		if len(queued) > 1 {
			f.bodies[apiPath] = queued[1:]
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

// LineReply is one reply received by FakeLine.
type LineReply struct {
	Authorization string
	ReplyToken    string
	Text          string
}

// FakeLine stands in for the reply endpoint. It answers with the given
// statuses in order, repeating the last one; 200 when none are given.
type FakeLine struct {
	*httptest.Server

	mu       sync.Mutex
	statuses []int
	hits     int
	replies  []LineReply
}

// NewFakeLine starts a fake closed at test cleanup.
func NewFakeLine(t *testing.T, statuses ...int) *FakeLine {
	t.Helper()
	if len(statuses) == 0 {
		statuses = []int{http.StatusOK}
	}
	f := &FakeLine{statuses: statuses}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Hits is the number of reply attempts received.
func (f *FakeLine) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

// Replies returns the decoded reply bodies received so far.
func (f *FakeLine) Replies() []LineReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LineReply(nil), f.replies...)
}

func (f *FakeLine) serve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReplyToken string `json:"replyToken"`
		Messages   []struct {
			Text string `json:"text"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.hits++
	idx := f.hits - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	status := f.statuses[idx]
	reply := LineReply{Authorization: r.Header.Get("Authorization"), ReplyToken: body.ReplyToken}
	if len(body.Messages) > 0 {
		reply.Text = body.Messages[0].Text
	}
	f.replies = append(f.replies, reply)
	f.mu.Unlock()

	w.WriteHeader(status)
	w.Write([]byte(`{}`))
}
