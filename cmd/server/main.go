package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "schoolcal/internal/adapters/email"
	web "schoolcal/internal/adapters/http"
	"schoolcal/internal/adapters/http/perf"
	"schoolcal/internal/adapters/schoolapi"
	"schoolcal/internal/adapters/storage"
	"schoolcal/internal/adapters/storage/snapshot"
	"schoolcal/internal/application/monthcache"
	"schoolcal/internal/application/orchestrators"
	"schoolcal/internal/scheduler"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Database with WAL mode and busy timeout; holds the month snapshot that
	// warms the cache across restarts.
	dbPath := envOrDefault("SCHOOLCAL_DB", "schoolcal.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Performance instrumentation: request and query timings share one
	// collector, exposed at /api/perf.
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	// Remote school API client.
	apiBase := envOrDefault("SCHOOLCAL_API_BASE", "http://localhost:9000")
	fetcher := schoolapi.NewClient(apiBase, 10*time.Second)

	// Month window cache, snapshot persistence, and the loader that is the
	// cache's only writer.
	cache := monthcache.New()
	snapStore := snapshot.NewSQLiteStore(timedDB)
	loader := orchestrators.NewMonthLoader(fetcher, cache, snapStore)
	loader.SetMaxAge(time.Hour)

	if loader.WarmFromSnapshot(context.Background(), snapStore) {
		log.Println("Calendar cache warmed from snapshot")
	}

	// Email sender for the weekly digest.
	var sender emailPkg.Sender
	emailFrom := envOrDefault("SCHOOLCAL_RESEND_FROM", "School Office <noreply@school.example>")
	emailReply := envOrDefault("SCHOOLCAL_REPLY_TO", "office@school.example")
	if resendKey := os.Getenv("SCHOOLCAL_RESEND_KEY"); resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("SCHOOLCAL_ENV") == "production" {
			log.Println("WARNING: SCHOOLCAL_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set SCHOOLCAL_RESEND_KEY for real delivery)")
		}
	}

	// Background jobs: periodic month refresh plus the Monday digest when
	// recipients are configured.
	recipients := splitRecipients(os.Getenv("SCHOOLCAL_DIGEST_TO"))
	digestDeps := orchestrators.WeekDigestDeps{
		Fetcher: fetcher,
		Sender:  sender,
		From:    emailFrom,
		ReplyTo: emailReply,
	}
	sched := scheduler.New(loader, digestDeps, recipients)
	go func() {
		if err := sched.Start(context.Background()); err != nil {
			log.Fatalf("scheduler failed: %v", err)
		}
	}()

	mux := web.NewMux("static", &web.Deps{Loader: loader, Cache: cache}, collector)

	addr := envOrDefault("SCHOOLCAL_ADDR", ":8080")
	log.Printf("schoolcal %s starting on %s (env=%s, api=%s)", version, addr, envOrDefault("SCHOOLCAL_ENV", "development"), apiBase)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitRecipients parses a comma-separated address list.
func splitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
