package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopwise/recsys/advisor"
	"github.com/shopwise/recsys/api"
	"github.com/shopwise/recsys/behavior"
	"github.com/shopwise/recsys/cache"
	"github.com/shopwise/recsys/catalog"
	"github.com/shopwise/recsys/config"
	"github.com/shopwise/recsys/core"
	"github.com/shopwise/recsys/engine"
	"github.com/shopwise/recsys/feedback"
	"github.com/shopwise/recsys/recall"
	"github.com/shopwise/recsys/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg.Log)

	kv, err := newStore(cfg.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("init store")
	}
	defer kv.Close()

	events := behavior.NewEventStore(kv)
	events.MaxEntries = cfg.Behavior.MaxHistory
	if cfg.Behavior.RetentionDays > 0 {
		events.Retention = time.Duration(cfg.Behavior.RetentionDays) * 24 * time.Hour
	}

	cat, err := newCatalog(cfg.Catalog, events)
	if err != nil {
		logger.Fatal().Err(err).Msg("init catalog")
	}

	profiles := &behavior.Analyzer{Events: events, Window: cfg.Behavior.PreferenceWindow}
	ledger := feedback.NewLedger(kv)

	eng := &engine.Engine{
		Events:         events,
		Profiles:       profiles,
		Content:        &recall.ContentRecall{Catalog: cat, Events: events},
		Collab:         &recall.CollaborativeRecall{Events: events, Catalog: cat},
		Cache:          &cache.ResultCache{Store: kv, TTL: cfg.Cache.TTL},
		Conversations:  &engine.ConversationLog{Store: kv},
		Logger:         logger.With().Str("component", "engine").Logger(),
		ContentWeight:  cfg.Recommend.ContentWeight,
		CollabWeight:   cfg.Recommend.CollabWeight,
		AdvisorTimeout: cfg.Advisor.Timeout,
	}
	if cfg.Advisor.Enabled {
		eng.Advisor = advisor.NewClient(cfg.Advisor.Endpoint, cfg.Advisor.APIKey,
			advisor.WithModel(cfg.Advisor.Model),
			advisor.WithTimeout(cfg.Advisor.Timeout),
		)
	}

	server := &api.Server{
		Engine:   eng,
		Events:   events,
		Profiles: profiles,
		Catalog:  cat,
		Ledger:   ledger,
		Logger:   logger.With().Str("component", "api").Logger(),
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("store", kv.Name()).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func newStore(cfg config.StoreConfig) (core.KeyValueStore, error) {
	if cfg.Backend == "redis" {
		return store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return store.NewMemoryStore(), nil
}

func newCatalog(cfg config.CatalogConfig, views catalog.ViewSource) (core.Catalog, error) {
	if cfg.File == "" {
		c := catalog.NewMemoryCatalog()
		c.Views = views
		return c, nil
	}
	c, err := catalog.LoadFromYAML(cfg.File)
	if err != nil {
		return nil, err
	}
	c.Views = views
	return c, nil
}
