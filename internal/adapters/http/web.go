package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"schoolcal/internal/adapters/http/middleware"
	"schoolcal/internal/adapters/http/perf"
	"schoolcal/internal/application/monthcache"
	"schoolcal/internal/application/orchestrators"
)

// Deps holds the application dependencies the handlers need.
type Deps struct {
	Loader *orchestrators.MonthLoader
	Cache  *monthcache.Cache
}

// Global deps instance (set by NewMux)
var deps *Deps

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// loadCSRFKey reads the CSRF secret from SCHOOLCAL_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("SCHOOLCAL_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("SCHOOLCAL_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("SCHOOLCAL_ENV") == "production" {
		log.Fatal("SCHOOLCAL_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (tokens won't survive restart). Set SCHOOLCAL_CSRF_KEY for production.")
	return key
}

// NewMux wires HTTP handlers for the calendar service.
func NewMux(staticDir string, d *Deps, collector *perf.Collector) http.Handler {
	deps = d
	perfCollector = collector

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/perf", handlePerf)
	mux.HandleFunc("/api/calendar/month", handleCalendarMonth)
	mux.HandleFunc("/api/calendar/day", handleCalendarDay)
	mux.HandleFunc("/api/calendar/refresh", handleCalendarRefresh)

	csrfKey := loadCSRFKey()
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
