package unsplash_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"icandy/internal/unsplash"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	onWait func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	if f.onWait != nil {
		f.onWait()
	}
	return ctx.Err()
}

func newTestClient(t *testing.T, baseURL string, clock *fakeClock, mutate func(*unsplash.Config)) *unsplash.Client {
	t.Helper()
	cfg := unsplash.Config{AccessKey: "test-key", BaseURL: baseURL}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := unsplash.New(cfg, unsplash.WithClock(clock.Now), unsplash.WithSleeper(clock.Sleep))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func searchBody(n int) string {
	body := `{"total": 99, "results": [`
	for i := 0; i < n; i++ {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"id": "p%d", "urls": {"regular": "https://images.example/p%d.jpg"}}`, i, i)
	}
	return body + "]}"
}

func TestNewRequiresAccessKey(t *testing.T) {
	_, err := unsplash.New(unsplash.Config{AccessKey: "   "})
	if !errors.Is(err, unsplash.ErrCredentials) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}
}

func TestSearchSendsAuthAndReturnsFirstResults(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/search/photos" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.Header.Get("Accept-Version"); got != "v1" {
			t.Errorf("unexpected Accept-Version header %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "ocean waves" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "2" {
			t.Errorf("unexpected per_page %q", got)
		}
		fmt.Fprint(w, `{"results": [
			{"urls": {"regular": "https://img/a.jpg", "full": "https://img/a-full.jpg"}},
			{"urls": {"full": "https://img/b-full.jpg"}},
			{"urls": {"regular": "https://img/c.jpg"}}
		]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newFakeClock(), nil)
	urls, err := client.Search(context.Background(), "  ocean waves ", 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	want := []string{"https://img/a.jpg", "https://img/b-full.jpg"}
	if !reflect.DeepEqual(urls, want) {
		t.Fatalf("Search returned %v, want %v", urls, want)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
	if client.RequestCount() != 1 {
		t.Fatalf("expected request count 1, got %d", client.RequestCount())
	}
}

func TestSearchClampsPageSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "30" {
			t.Errorf("expected per_page clamped to 30, got %q", got)
		}
		fmt.Fprint(w, searchBody(30))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newFakeClock(), nil)
	urls, err := client.Search(context.Background(), "forest", 100)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(urls) != 30 {
		t.Fatalf("expected 30 urls, got %d", len(urls))
	}
}

func TestSearchSkipsProviderForEmptyInput(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newFakeClock(), nil)
	for _, tc := range []struct {
		query string
		count int
	}{{"", 5}, {"   ", 5}, {"cat", 0}, {"cat", -1}} {
		urls, err := client.Search(context.Background(), tc.query, tc.count)
		if err != nil || len(urls) != 0 {
			t.Fatalf("Search(%q, %d) = %v, %v; want empty", tc.query, tc.count, urls, err)
		}
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", hits.Load())
	}
	if client.RequestCount() != 0 {
		t.Fatalf("expected request count 0, got %d", client.RequestCount())
	}
}

func TestSearchUnauthorizedFailsWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"errors":["OAuth error: The access token is invalid"]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, nil)
	_, err := client.Search(context.Background(), "cat", 5)
	if !errors.Is(err, unsplash.ErrCredentials) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", hits.Load())
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("expected no backoff, got %v", clock.sleeps)
	}
	if client.RequestCount() != 0 {
		t.Fatalf("failed search must not count, got %d", client.RequestCount())
	}
}

func TestSearchTransientFailureUsesMaxRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.MaxRetries = 4 })
	_, err := client.Search(context.Background(), "cat", 5)
	var statusErr *unsplash.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected last status error, got %v", err)
	}
	if hits.Load() != 4 {
		t.Fatalf("expected 4 attempts, got %d", hits.Load())
	}
	want := []time.Duration{time.Second, time.Second, time.Second}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Fatalf("unexpected delays %v, want %v", clock.sleeps, want)
	}
	if client.RequestCount() != 0 {
		t.Fatalf("failed search must not count, got %d", client.RequestCount())
	}
}

func TestSearchRateLimitFailsFastIndependentOfMaxRetries(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				http.Error(w, "Rate Limit Exceeded", status)
			}))
			defer srv.Close()

			clock := newFakeClock()
			client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.MaxRetries = 10 })
			_, err := client.Search(context.Background(), "cat", 5)
			if !errors.Is(err, unsplash.ErrRateLimited) {
				t.Fatalf("expected ErrRateLimited, got %v", err)
			}
			if hits.Load() != 2 {
				t.Fatalf("expected 2 rate-limited attempts, got %d", hits.Load())
			}
			if !reflect.DeepEqual(clock.sleeps, []time.Duration{5 * time.Second}) {
				t.Fatalf("unexpected delays %v", clock.sleeps)
			}
		})
	}
}

func TestSearchRateLimitBackoffIsLinear(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, searchBody(1))
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.RateLimitRetries = 4 })
	urls, err := client.Search(context.Background(), "cat", 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("expected one url, got %v", urls)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second}
	if !reflect.DeepEqual(clock.sleeps, want) {
		t.Fatalf("unexpected delays %v, want %v", clock.sleeps, want)
	}
	if client.RequestCount() != 1 {
		t.Fatalf("expected exactly one counted request, got %d", client.RequestCount())
	}
}

func TestSearchBlocksWhenWindowIsFull(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, searchBody(1))
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.HourlyLimit = 3 })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.Search(ctx, "cat", 1); err != nil {
			t.Fatalf("search %d failed: %v", i, err)
		}
		clock.now = clock.now.Add(10 * time.Minute)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("expected no waits within the ceiling, got %v", clock.sleeps)
	}

	var hitsDuringWait int32 = -1
	clock.onWait = func() { hitsDuringWait = hits.Load() }
	if _, err := client.Search(ctx, "cat", 1); err != nil {
		t.Fatalf("search after ceiling failed: %v", err)
	}
	if !reflect.DeepEqual(clock.sleeps, []time.Duration{30 * time.Minute}) {
		t.Fatalf("expected a 30m wait for the window remainder, got %v", clock.sleeps)
	}
	if hitsDuringWait != 3 {
		t.Fatalf("request issued before the wait finished (hits=%d)", hitsDuringWait)
	}
	if client.RequestCount() != 1 {
		t.Fatalf("expected fresh window with one request, got %d", client.RequestCount())
	}
}

func TestWindowResetsAfterElapsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchBody(1))
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.HourlyLimit = 1 })
	ctx := context.Background()

	if _, err := client.Search(ctx, "cat", 1); err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	clock.now = clock.now.Add(time.Hour)
	if _, err := client.Search(ctx, "dog", 1); err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("expected no wait after the window elapsed, got %v", clock.sleeps)
	}
	if client.RequestCount() != 1 {
		t.Fatalf("expected count 1 in the new window, got %d", client.RequestCount())
	}
}

func TestResetWindowClearsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchBody(1))
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.HourlyLimit = 1 })
	if _, err := client.Search(context.Background(), "cat", 1); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	client.ResetWindow()
	if client.RequestCount() != 0 {
		t.Fatalf("expected count 0 after reset, got %d", client.RequestCount())
	}
	if _, err := client.Search(context.Background(), "dog", 1); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("expected no wait after reset, got %v", clock.sleeps)
	}
}

func TestWindowWaitInterruptedIsFatal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, searchBody(1))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := newFakeClock()
	clock.onWait = cancel
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.HourlyLimit = 1 })

	if _, err := client.Search(ctx, "cat", 1); err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	_, err := client.Search(ctx, "dog", 1)
	if !errors.Is(err, unsplash.ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("interrupted wait must not issue a request, got %d hits", hits.Load())
	}
}

func TestRetryBackoffInterruptedIsFatal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := newFakeClock()
	clock.onWait = cancel
	client := newTestClient(t, srv.URL, clock, nil)

	_, err := client.Search(ctx, "cat", 1)
	if !errors.Is(err, unsplash.ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected no retry after interruption, got %d hits", hits.Load())
	}
}

func TestDownloadWritesFile(t *testing.T) {
	payload := []byte("\xff\xd8\xff\xe0fake-jpeg-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newFakeClock(), nil)
	dest := filepath.Join(t.TempDir(), "images", "nested", "cat_1.jpg")
	if !client.Download(context.Background(), srv.URL+"/cat.jpg", dest) {
		t.Fatal("expected download to succeed")
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("downloaded bytes differ: %q", got)
	}
	if client.RequestCount() != 0 {
		t.Fatalf("downloads must not count against the window, got %d", client.RequestCount())
	}
}

func TestDownloadFailureReturnsFalse(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(t, srv.URL, clock, func(cfg *unsplash.Config) { cfg.MaxRetries = 2 })
	dest := filepath.Join(t.TempDir(), "missing.jpg")
	if client.Download(context.Background(), srv.URL+"/missing.jpg", dest) {
		t.Fatal("expected download to fail")
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits.Load())
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("failed download must not leave a file, stat err=%v", err)
	}
}

func TestDownloadRejectsEmptyInputs(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", newFakeClock(), nil)
	if client.Download(context.Background(), "", filepath.Join(t.TempDir(), "a.jpg")) {
		t.Fatal("expected false for empty uri")
	}
	if client.Download(context.Background(), "http://127.0.0.1:1/a.jpg", "") {
		t.Fatal("expected false for empty path")
	}
}
