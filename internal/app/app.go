// Package app assembles the service from its configuration. The API server
// and the admin CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"nagarneuron/backend/internal/api"
	"nagarneuron/backend/internal/api/handler"
	"nagarneuron/backend/internal/auth"
	"nagarneuron/backend/internal/complaint"
	"nagarneuron/backend/internal/config"
	"nagarneuron/backend/internal/events"
	"nagarneuron/backend/internal/gamification"
	"nagarneuron/backend/internal/geo"
	"nagarneuron/backend/internal/lifecycle"
	"nagarneuron/backend/internal/localization"
	"nagarneuron/backend/internal/logger"
	"nagarneuron/backend/internal/metrics"
	"nagarneuron/backend/internal/storage"
	"nagarneuron/backend/internal/verification"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Cfg   *config.Config
	Log   *logger.Logger
	DB    *gorm.DB
	Redis *redis.Client
	Store *storage.Service

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Bus      events.Bus
	Hub      *events.Hub

	Gamification *gamification.Engine
	Lifecycle    *lifecycle.Engine
	Votes        *verification.Engine
	Complaints   *complaint.Service
	Nearby       *geo.Finder
	Auth         *auth.Service
}

// New connects the stores, migrates and seeds the catalog, and wires every
// engine. Callers must Close the result.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	db, err := storage.OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := storage.Migrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := storage.SeedCatalog(ctx, db, time.Now()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	rdb, err := storage.OpenRedis(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Redis = rdb
	a.Store = storage.NewStorageService(db, rdb, cfg.CacheTTL, log)

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	if rdb != nil {
		a.Bus = events.NewRedisBus(rdb, log)
	} else {
		a.Bus = events.NewLocalBus(log)
	}
	loc, err := localization.Default()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Hub = events.NewHub(cfg.AllowedOrigins, a.Metrics, log)
	a.Bus.Subscribe(a.Hub.Handle)
	a.Bus.Subscribe(events.NewRecorder(a.Store, loc, log).Handle)

	tz := cfg.Location()
	a.Gamification = gamification.NewEngine(a.Store, a.Bus, log,
		gamification.WithLocation(tz),
		gamification.WithMetrics(a.Metrics),
	)
	a.Lifecycle = lifecycle.NewEngine(a.Store, a.Gamification, a.Bus, a.Metrics, log)
	a.Votes = verification.NewEngine(a.Store, a.Lifecycle, a.Gamification, a.Bus, a.Metrics, log)
	a.Complaints = complaint.NewService(a.Store, a.Gamification, a.Bus, log, complaint.WithLocation(tz))
	a.Nearby = geo.NewFinder(a.Store)
	a.Auth = auth.NewService(a.Store, cfg.JWTSecret, cfg.TokenTTL, log)
	return a, nil
}

// SeedSamples loads demo complaints and hotspots into an empty database.
func (a *App) SeedSamples(ctx context.Context) error {
	n, err := complaint.SeedSamples(ctx, a.Store, nil, time.Now())
	if err != nil {
		return fmt.Errorf("failed to seed sample data: %w", err)
	}
	if n > 0 {
		a.Log.Info("sample data seeded", "complaints", n)
	}
	return nil
}

func (a *App) Router() *gin.Engine {
	h := handler.NewHandler(handler.Handler{
		Complaints:   a.Complaints,
		Lifecycle:    a.Lifecycle,
		Votes:        a.Votes,
		Nearby:       a.Nearby,
		Gamification: a.Gamification,
		Auth:         a.Auth,
		Store:        a.Store,
		Hub:          a.Hub,
		Ping:         a.Store.Ping,
	}, a.Log)
	return api.NewRouter(api.RouterConfig{
		Handler:        h,
		Tokens:         a.Auth,
		Metrics:        a.Metrics,
		MetricsHandler: promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}),
		AllowedOrigins: a.Cfg.AllowedOrigins,
		Log:            a.Log,
	})
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("error closing redis", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Warn("error closing database", "error", err)
			}
		}
	}
	a.Log.Sync()
}
