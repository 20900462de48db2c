package integration

import (
	"net/http"
	"testing"
	"time"
)

func TestRateLimitBlocksBurstPerScope(t *testing.T) {
	ts := newGateTestServer(t, gateTestOptions{
		RateLimitThreshold: 5,
		RateLimitWindow:    10 * time.Second,
	})

	body := map[string]string{"login_or_email": "nobody", "password": "whatever"}
	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, ts.Client, http.MethodPost, ts.BaseURL+"/api/v1/auth/login", body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status=%d, want 401 (bad credentials, still admitted)", i+1, resp.StatusCode)
		}
	}

	resp, env := doJSON(t, ts.Client, http.MethodPost, ts.BaseURL+"/api/v1/auth/login", body, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: status=%d, want 429", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Fatalf("6th attempt error = %+v, want RATE_LIMITED", env.Error)
	}
	if got := resp.Header.Get("Retry-After"); got != "10" {
		t.Fatalf("Retry-After = %q, want 10", got)
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("X-RateLimit-Limit = %q, want 5", got)
	}

	// The posts scope has its own budget and is still open.
	resp, _ = doJSON(t, ts.Client, http.MethodGet, ts.BaseURL+"/api/v1/posts/", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("posts after auth burst: status=%d, want 200", resp.StatusCode)
	}
}

func TestRateLimitWindowSlides(t *testing.T) {
	ts := newGateTestServer(t, gateTestOptions{
		RateLimitThreshold: 2,
		RateLimitWindow:    10 * time.Second,
	})

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, ts.Client, http.MethodGet, ts.BaseURL+"/api/v1/posts/", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status=%d", i+1, resp.StatusCode)
		}
	}
	resp, _ := doJSON(t, ts.Client, http.MethodGet, ts.BaseURL+"/api/v1/posts/", nil, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("over threshold: status=%d, want 429", resp.StatusCode)
	}

	// miniredis time is frozen; fast-forward past the retention TTL instead
	// of sleeping. The event key lapses and the budget reopens.
	ts.Redis.FastForward(21 * time.Second)

	resp, _ = doJSON(t, ts.Client, http.MethodGet, ts.BaseURL+"/api/v1/posts/", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("after window: status=%d, want 200", resp.StatusCode)
	}
}
