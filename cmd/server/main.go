package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"leaveledger/internal/db"
	"leaveledger/internal/domain/audit"
	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/ledger"
	"leaveledger/internal/domain/member"
	"leaveledger/internal/domain/reports"
	"leaveledger/internal/platform/config"
	platformdb "leaveledger/internal/platform/db"
	"leaveledger/internal/platform/metrics"
	audithandler "leaveledger/internal/transport/http/handlers/audit"
	authhandler "leaveledger/internal/transport/http/handlers/auth"
	ledgerhandler "leaveledger/internal/transport/http/handlers/ledger"
	memberhandler "leaveledger/internal/transport/http/handlers/member"
	reportshandler "leaveledger/internal/transport/http/handlers/reports"
	"leaveledger/internal/transport/http/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	if cfg.RunSeed {
		if err := platformdb.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	collector := metrics.New()
	perms := auth.Permissions{}

	auditSvc := audit.New(pool)
	memberStore := member.NewStore(pool)
	gate := member.NewGate(memberStore)
	ledgerSvc := ledger.NewService(ledger.NewStore(pool), gate, auditSvc)
	reportsSvc := reports.NewService(reports.NewStore(pool))
	authStore := auth.NewStore(pool)
	idemStore := middleware.NewIdempotencyStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot())
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, auditSvc, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		memberhandler.NewHandler(memberStore, gate, perms, auditSvc).RegisterRoutes(r)
		ledgerhandler.NewHandler(ledgerSvc, perms, idemStore, collector).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, perms).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
	})

	log.Printf("leave ledger listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
