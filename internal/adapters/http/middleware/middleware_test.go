package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolcal/internal/adapters/http/perf"
)

// TestRateLimiter_AllowWithinLimit tests that requests within the limit pass.
func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

// TestRateLimiter_BlocksOverLimit tests that the bucket empties.
func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	rl.Allow("1.2.3.4")
	rl.Allow("1.2.3.4")
	if rl.Allow("1.2.3.4") {
		t.Error("third request within the interval should be blocked")
	}
	// A different IP has its own bucket.
	if !rl.Allow("5.6.7.8") {
		t.Error("separate IP should not share the exhausted bucket")
	}
}

// TestRateLimit_Returns429 tests the middleware response.
func TestRateLimit_Returns429(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

// TestSecurityHeaders tests that the OWASP headers are set.
func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

// TestTiming_RecordsToCollector tests that requests land in the collector.
func TestTiming_RecordsToCollector(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/calendar/month", nil))

	if collector.TotalRecorded() != 1 {
		t.Fatalf("TotalRecorded = %d, want 1", collector.TotalRecorded())
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 5)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "GET /api/calendar/month" {
		t.Errorf("unexpected snapshot paths: %+v", snap.SlowestPaths)
	}
}

// TestTiming_SkipsStaticAssets tests the static path exclusion.
func TestTiming_SkipsStaticAssets(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/static/app.js", nil))

	if collector.TotalRecorded() != 0 {
		t.Errorf("static asset should not be recorded, got %d entries", collector.TotalRecorded())
	}
}

// TestChain_AppliesInOrder tests middleware composition.
func TestChain_AppliesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mk("inner"), mk("outer"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}
