package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "leakhound/internal/platform/errors"
)

// testClient builds a client against srv with the sleep call recorded
func testClient(t *testing.T, srv *httptest.Server, tokens []string, opts Options) (*Client, *[]time.Duration) {
	t.Helper()
	opts.BaseURL = srv.URL
	c := NewClient(NewTokenPool(tokens), opts)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestClientUnauthorizedEvictsAndRetriesWithFreshToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") == "token dead" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv, []string{"dead"}, Options{Retries: 3})
	// force the dead token first, then the live one
	c.pool.tokens = []string{"dead", "live"}
	c.pool.pick = func(int) int { return 0 }

	resp, err := c.Get(context.Background(), "/users/x", nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if c.pool.Size() != 1 {
		t.Fatalf("expected dead token evicted, pool size %d", c.pool.Size())
	}
	if got, _ := c.pool.Sample(); got != "live" {
		t.Fatalf("expected only live token to remain, got %q", got)
	}
}

func TestClientRateLimitedEvictsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "token spent" {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv, nil, Options{Retries: 3})
	c.pool.tokens = []string{"spent", "fresh"}
	c.pool.pick = func(int) int { return 0 }

	if _, err := c.Get(context.Background(), "/users/x", nil); err != nil {
		t.Fatalf("expected success after eviction, got %v", err)
	}
	if c.pool.Size() != 1 {
		t.Fatalf("expected rate limited token evicted, pool size %d", c.pool.Size())
	}
}

func TestClientForbiddenWithRemainingQuotaIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Repository access blocked"}`))
	}))
	defer srv.Close()

	c, slept := testClient(t, srv, []string{"tok"}, Options{Retries: 3})
	_, err := c.Get(context.Background(), "/repos/a/b", nil)
	if !IsStatus(err, 403) {
		t.Fatalf("expected 403 status error, got %v", err)
	}
	if StatusBody(err) != `{"message":"Repository access blocked"}` {
		t.Fatalf("expected body preserved, got %q", StatusBody(err))
	}
	if len(*slept) != 0 {
		t.Fatalf("terminal client error must not retry, slept %d times", len(*slept))
	}
	if c.pool.Size() != 1 {
		t.Fatalf("403 with remaining quota must not evict, pool size %d", c.pool.Size())
	}
}

func TestClientServerErrorRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, slept := testClient(t, srv, []string{"tok"}, Options{Retries: 3, RetryDelay: 200 * time.Millisecond})
	if _, err := c.Get(context.Background(), "/users/x", nil); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(*slept) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(*slept))
	}
	for _, d := range *slept {
		if d != 200*time.Millisecond {
			t.Fatalf("expected fixed 200ms delay, got %v", d)
		}
	}
}

func TestClientRetryBudgetExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, slept := testClient(t, srv, []string{"tok"}, Options{Retries: 3})
	_, err := c.Get(context.Background(), "/users/x", nil)
	if !IsStatus(err, 500) {
		t.Fatalf("expected final 500 to propagate, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Fatalf("expected 1 initial + 3 retries, got %d attempts", calls)
	}
	if len(*slept) != 3 {
		t.Fatalf("expected 3 sleeps, got %d", len(*slept))
	}
}

func TestClientEmptyPoolIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, slept := testClient(t, srv, []string{"only"}, Options{Retries: 3})
	_, err := c.Get(context.Background(), "/users/x", nil)
	if !perr.IsCode(err, perr.ErrorCodeNoCredentials) {
		t.Fatalf("expected no-credentials error once the pool drains, got %v", err)
	}
	// one sleep after the 401 eviction, then the empty pool stops the run
	if len(*slept) != 1 {
		t.Fatalf("expected 1 sleep before the pool drained, got %d", len(*slept))
	}
}

func TestRetrySleepAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := retry(ctx, 3, time.Hour, sleepCtx, func(error) bool { return true }, func() error {
		attempts++
		cancel()
		return perr.Newf(perr.ErrorCodeUnavailable, "boom")
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled out of the sleep, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected no attempt after cancellation, got %d", attempts)
	}
}

func TestClientSendsAuthAndUserAgentHeaders(t *testing.T) {
	var gotAuth, gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv, []string{"tok"}, Options{UserAgent: "leakhound tests"})
	if _, err := c.Get(context.Background(), "/users/x", nil); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if gotAuth != "token tok" {
		t.Fatalf("expected token auth scheme, got %q", gotAuth)
	}
	if gotUA != "leakhound tests" {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Fatalf("unexpected accept header %q", gotAccept)
	}
}
