package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/parentingo/parentingo/internal/blob"
	"github.com/parentingo/parentingo/internal/config"
	"github.com/parentingo/parentingo/internal/database"
	"github.com/parentingo/parentingo/internal/events"
	"github.com/parentingo/parentingo/internal/logging"
	"github.com/parentingo/parentingo/internal/metrics"
	"github.com/parentingo/parentingo/internal/repository"
	"github.com/parentingo/parentingo/internal/repository/memory"
	postgresrepo "github.com/parentingo/parentingo/internal/repository/postgres"
	"github.com/parentingo/parentingo/internal/service"
	"github.com/parentingo/parentingo/internal/session"
	"github.com/parentingo/parentingo/internal/transport/http/handlers"
	"github.com/parentingo/parentingo/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.WithField("driver", cfg.StoreDriver).Info("store ready")

	// Sessions
	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rs.Close()
		sessions = rs
		logger.Info("token revocation backed by redis")
	}

	// Images
	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Live feed and events
	subscriptions := service.NewGroupService(service.Deps{Store: store})
	hub := ws.NewHub(subscriptions, logger, m)
	publishers := events.Fanout{ws.NewPublisher(hub)}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer np.Close()
		publishers = append(publishers, np)
		logger.Info("publishing events to nats")
	}

	// Services
	deps := service.Deps{Store: store, Blobs: blobs, Events: publishers, Metrics: m}
	svc := handlers.Services{
		Auth:     service.NewAuthService(store.Users, sessions, cfg.JWTSecret, cfg.TokenTTL),
		Users:    service.NewUserService(deps),
		Groups:   service.NewGroupService(deps),
		Posts:    service.NewPostService(deps),
		Comments: service.NewCommentService(deps),
	}
	router := handlers.NewRouter(svc, handlers.RouterOptions{
		Logger:     logger,
		Metrics:    m,
		Hub:        hub,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		return memory.New().Repositories(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		return repository.Store{}, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return repository.Store{}, nil, err
	}
	return postgresrepo.NewStore(pool), pool.Close, nil
}

func openBlobs(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.BlobDriver != "s3" {
		return blob.NewMemoryStore(), nil
	}
	return blob.NewS3Store(ctx, blob.S3Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
		PublicURL:    cfg.S3PublicURL,
	})
}
