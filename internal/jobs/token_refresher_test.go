package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/tuowzz/lazada-bot/internal/token"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTokenRefresherCheck(t *testing.T) {
	tests := []struct {
		name        string
		expiry      time.Time
		wantRefresh bool
	}{
		{"no expiry known", time.Time{}, false},
		{"far from expiry", now.Add(6 * time.Hour), false},
		{"within lead", now.Add(30 * time.Minute), true},
		{"already expired", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := token.NewCell(&oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: tt.expiry}, nil, nil)
			calls := 0
			refresh := func(_ context.Context, refreshToken string) (*oauth2.Token, error) {
				calls++
				if refreshToken != "r1" {
					t.Errorf("refresh token = %q", refreshToken)
				}
				return &oauth2.Token{AccessToken: "a2", Expiry: now.Add(7 * 24 * time.Hour)}, nil
			}

			r := NewTokenRefresher(cell, refresh, time.Minute, time.Hour, nil, nil)
			r.now = func() time.Time { return now }

			if got := r.check(context.Background()); got != tt.wantRefresh {
				t.Errorf("check = %v, want %v", got, tt.wantRefresh)
			}
			if tt.wantRefresh && (calls != 1 || cell.AccessToken(context.Background()) != "a2") {
				t.Errorf("calls = %d, access token = %q", calls, cell.AccessToken(context.Background()))
			}
			if !tt.wantRefresh && calls != 0 {
				t.Errorf("unexpected refresh")
			}
		})
	}
}

func TestTokenRefresherFailureKeepsToken(t *testing.T) {
	cell := token.NewCell(&oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: now}, nil, nil)
	r := NewTokenRefresher(cell, func(context.Context, string) (*oauth2.Token, error) {
		return nil, errors.New("gateway down")
	}, time.Minute, time.Hour, nil, nil)
	r.now = func() time.Time { return now }

	r.check(context.Background())
	if got := cell.AccessToken(context.Background()); got != "a1" {
		t.Errorf("access token = %q, want a1", got)
	}
	if cell.State() != token.Invalid {
		t.Errorf("state = %v, want Invalid", cell.State())
	}
}

func TestTokenRefresherStopsOnCancel(t *testing.T) {
	cell := token.NewCell(&oauth2.Token{AccessToken: "a1"}, nil, nil)
	r := NewTokenRefresher(cell, nil, time.Millisecond, time.Hour, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}
