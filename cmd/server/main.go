package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"orgguard/internal/dedup"
	"orgguard/internal/enforce/engine"
	"orgguard/internal/enforce/handler"
	enforcemetrics "orgguard/internal/enforce/metrics"
	"orgguard/internal/enforce/observability"
	"orgguard/internal/jwtauth"
	"orgguard/internal/orgs"
	"orgguard/internal/platform/config"
	"orgguard/internal/platform/httpserver"
	"orgguard/internal/platform/logger"
	"orgguard/internal/platform/middleware"
	platformredis "orgguard/internal/platform/redis"
	httptransport "orgguard/internal/transport/http"
	"orgguard/pkg/platform/audit"
	auditkafka "orgguard/pkg/platform/audit/kafka"
	auditmemory "orgguard/pkg/platform/audit/store/memory"
	auditpostgres "orgguard/pkg/platform/audit/store/postgres"
	auditworker "orgguard/pkg/platform/audit/worker"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal/enforce packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httptransport.HealthCheck{}

	// Audit store: postgres when configured, in-memory otherwise (dev runs).
	var store audit.Store
	if cfg.Audit.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.Audit.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		store = auditpostgres.New(db)
		checks["postgres"] = db.PingContext
	} else {
		log.Warn("no postgres DSN configured, audit records held in memory only")
		store = auditmemory.New()
	}

	// Audit pipeline sink: kafka when brokers are configured.
	var sink audit.Sink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		producer, err := auditkafka.NewProducer(ctx, cfg.Audit.KafkaBrokers, cfg.Audit.Topic,
			auditkafka.WithLogger(log))
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		sink = producer
	}

	publisher := audit.NewPublisher(cfg.Audit.Buffer, audit.WithLogger(log))
	reporter := observability.NewReporter(log, publisher)

	orgsClient, err := orgs.New(cfg.Orgs.BaseURL, cfg.Orgs.Token, cfg.Orgs.Timeout)
	if err != nil {
		log.Error("configure orgs client", "error", err)
		os.Exit(1)
	}

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(enforcemetrics.New()),
	}
	if !cfg.DuplicateAttachAsSuccess {
		engineOpts = append(engineOpts, engine.WithDuplicateAttachAsFailure())
	}

	// Redelivery marker is optional; enforcement is safe without it.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		marker, err := dedup.NewRedisMarker(redisClient.Client, cfg.Redis.MarkerTTL)
		if err != nil {
			log.Error("configure delivery marker", "error", err)
			os.Exit(1)
		}
		engineOpts = append(engineOpts, engine.WithDeliveryMarker(marker))
		checks["redis"] = redisClient.Health
	}

	eng, err := engine.New(cfg.PolicyIDs, orgsClient, orgsClient, reporter, engineOpts...)
	if err != nil {
		log.Error("configure enforcement engine", "error", err)
		os.Exit(1)
	}

	validator := jwtauth.NewValidator(cfg.JWTSigningKey)
	router := httptransport.NewRouter(
		handler.New(eng, log),
		middleware.RequireAuth(validator, log),
		checks,
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting orgguard",
		"addr", cfg.Addr,
		"policies", len(cfg.PolicyIDs),
		"duplicate_attach_as_success", cfg.DuplicateAttachAsSuccess,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker := auditworker.New(store, sink, publisher.Inbox(), log)
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
