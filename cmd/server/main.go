// Command server runs the accreditation portal API: document validation and
// lifecycle, applications, renewals, and accounts.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"seacert/internal/application"
	applicationhandler "seacert/internal/application/handler"
	"seacert/internal/audit"
	"seacert/internal/document"
	documenthandler "seacert/internal/document/handler"
	"seacert/internal/identity"
	identityhandler "seacert/internal/identity/handler"
	"seacert/internal/jwttoken"
	"seacert/internal/platform/config"
	"seacert/internal/platform/httpserver"
	"seacert/internal/platform/logger"
	"seacert/internal/platform/metrics"
	"seacert/internal/platform/postgres"
	platformredis "seacert/internal/platform/redis"
	"seacert/internal/renewal"
	renewalhandler "seacert/internal/renewal/handler"
	"seacert/internal/requirement"
	"seacert/internal/storage"
	storagehandler "seacert/internal/storage/handler"
	httptransport "seacert/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	descriptors, err := requirement.Load(cfg.DescriptorsPath)
	if err != nil {
		log.Error("loading requirement descriptors failed", "error", err)
		os.Exit(1)
	}

	// Stores: postgres when configured, memory otherwise.
	var (
		documentStore    document.Store
		applicationStore application.Store
		renewalStore     renewal.Store
		identityStore    identity.Store
		auditStore       audit.Store
	)
	if db != nil {
		documentStore = document.NewPostgresStore(db)
		applicationStore = application.NewPostgresStore(db)
		renewalStore = renewal.NewPostgresStore(db)
		identityStore = identity.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("POSTGRES_URL not set; using in-memory stores")
		documentStore = document.NewInMemoryStore()
		applicationStore = application.NewInMemoryStore()
		renewalStore = renewal.NewInMemoryStore()
		identityStore = identity.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	// Audit pipeline: bounded in-process queue, persisted by a worker, with
	// an optional Kafka mirror.
	publisher := audit.NewPublisher(1024)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Error("kafka sink init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	worker := audit.NewWorker(auditStore, sink, publisher.Inbox(), log)

	// The HMAC signer both issues and verifies download URLs; the cache only
	// fronts issuance.
	hmacSigner := storage.NewHMACSigner(cfg.SignedURLBase, cfg.SignedURLSecret)
	var urlSigner storage.URLSigner = hmacSigner
	if redisClient != nil {
		urlSigner = storage.NewCachedSigner(urlSigner, redisClient.Client)
	}

	var objects storage.ObjectStore
	if cfg.DataDir != "" {
		objects, err = storage.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Error("object store init failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("SEACERT_DATA_DIR not set; storing uploads in memory")
		objects = storage.NewInMemoryStore()
	}

	documentService := document.NewService(
		documentStore,
		objects,
		urlSigner,
		document.NewValidator(nil),
		descriptors,
		publisher,
		cfg.SignedURLTTL,
	)
	applicationService := application.NewService(applicationStore, documentService, publisher)
	renewalService := renewal.NewService(renewalStore, documentService, publisher)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "seacert", "seacert-portal")
	identityService := identity.NewService(identityStore, tokens, publisher)

	m := metrics.New()
	jwtValidator := jwttoken.NewMiddlewareAdapter(tokens)

	checks := map[string]httptransport.HealthChecker{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter([]httptransport.Registerer{
		identityhandler.New(identityService, log, m),
		documenthandler.New(documentService, log, m, jwtValidator),
		applicationhandler.New(applicationService, log, m, jwtValidator),
		renewalhandler.New(renewalService, log, m, jwtValidator),
		storagehandler.New(objects, hmacSigner, log, m),
	}, checks)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting seacert portal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
