package line

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

// statusServer answers with statuses in order, repeating the last one.
func statusServer(t *testing.T, statuses []int, hits *int32, check func(*http.Request, replyRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(hits, 1)
		if check != nil {
			var body replyRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			check(r, body)
		}
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		w.WriteHeader(statuses[idx])
		w.Write([]byte(`{}`))
	}))
}

func newTestDispatcher(url string) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(Config{
		ReplyURL:    url,
		AccessToken: "line-token",
		Policy:      RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second},
	}, nil, nil)
	var waits []time.Duration
	d.sleep = func(_ context.Context, wait time.Duration) error {
		waits = append(waits, wait)
		return nil
	}
	return d, &waits
}

func TestReplyRetriesTransientThenSucceeds(t *testing.T) {
	var hits int32
	srv := statusServer(t, []int{503, 503, 200}, &hits, nil)
	defer srv.Close()

	d, waits := newTestDispatcher(srv.URL)
	delivery, err := d.Reply(context.Background(), "reply-token", "hello")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if atomic.LoadInt32(&hits) != 3 || delivery.Attempts != 3 || delivery.StatusCode != 200 {
		t.Errorf("hits = %d, delivery = %+v", hits, delivery)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*waits) != 2 || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Errorf("backoff = %v, want %v", *waits, want)
	}
}

func TestReplyDoesNotRetryClientError(t *testing.T) {
	var hits int32
	srv := statusServer(t, []int{404}, &hits, nil)
	defer srv.Close()

	d, waits := newTestDispatcher(srv.URL)
	delivery, err := d.Reply(context.Background(), "reply-token", "hello")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 404 {
		t.Fatalf("error = %v, want StatusError 404", err)
	}
	if atomic.LoadInt32(&hits) != 1 || delivery.Attempts != 1 || len(*waits) != 0 {
		t.Errorf("hits = %d, attempts = %d, waits = %v", hits, delivery.Attempts, *waits)
	}
}

func TestReplyGivesUpAfterMaxAttempts(t *testing.T) {
	var hits int32
	srv := statusServer(t, []int{429}, &hits, nil)
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL)
	delivery, err := d.Reply(context.Background(), "reply-token", "hello")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if atomic.LoadInt32(&hits) != 3 || delivery.Attempts != 3 {
		t.Errorf("hits = %d, attempts = %d", hits, delivery.Attempts)
	}
}

func TestReplyRetryableStatuses(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{501, false},
	}
	for _, tt := range tests {
		err := &StatusError{StatusCode: tt.status}
		if got := err.Retryable(); got != tt.retryable {
			t.Errorf("Retryable(%d) = %v, want %v", tt.status, got, tt.retryable)
		}
	}
}

func TestReplyRequestShape(t *testing.T) {
	var hits int32
	srv := statusServer(t, []int{200}, &hits, func(r *http.Request, body replyRequest) {
		if got := r.Header.Get("Authorization"); got != "Bearer line-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if body.ReplyToken != "reply-token" || len(body.Messages) != 1 {
			t.Errorf("body = %+v", body)
			return
		}
		if body.Messages[0].Type != "text" {
			t.Errorf("message type = %q", body.Messages[0].Type)
		}
		if n := utf8.RuneCountInString(body.Messages[0].Text); n != MaxTextLength {
			t.Errorf("text length = %d, want %d", n, MaxTextLength)
		}
	})
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL)
	if _, err := d.Reply(context.Background(), "reply-token", strings.Repeat("x", 6000)); err != nil {
		t.Fatalf("Reply: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"short", "hello", 5},
		{"exact", strings.Repeat("a", 5000), 5000},
		{"ascii over", strings.Repeat("a", 6000), 5000},
		{"thai over", strings.Repeat("ก", 6000), 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in)
			if n := utf8.RuneCountInString(got); n != tt.want {
				t.Errorf("len = %d, want %d", n, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Error("truncated text is not valid UTF-8")
			}
		})
	}
}

func TestReplyEmptyToken(t *testing.T) {
	d, _ := newTestDispatcher("http://127.0.0.1:0")
	if _, err := d.Reply(context.Background(), "", "x"); !errors.Is(err, ErrEmptyReplyToken) {
		t.Errorf("error = %v, want ErrEmptyReplyToken", err)
	}
}

func TestReplyStopsWhenContextCancelled(t *testing.T) {
	var hits int32
	srv := statusServer(t, []int{503}, &hits, nil)
	defer srv.Close()

	d, _ := newTestDispatcher(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	d.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	if _, err := d.Reply(ctx, "reply-token", "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestRetryPolicyDelayCapped(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := p.delay(i + 1); got != w {
			t.Errorf("delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign("channel-secret", body)

	if !VerifySignature("channel-secret", body, sig) {
		t.Error("valid signature rejected")
	}
	if VerifySignature("other-secret", body, sig) {
		t.Error("signature with wrong secret accepted")
	}
	if VerifySignature("channel-secret", []byte(`{"events":[{}]}`), sig) {
		t.Error("signature for different body accepted")
	}
	if VerifySignature("channel-secret", body, "") {
		t.Error("empty signature accepted")
	}
}
