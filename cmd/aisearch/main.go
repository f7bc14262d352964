package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/config"
	dbRedis "github.com/glowmart/aisearch/internal/db/redis"
	logpkg "github.com/glowmart/aisearch/internal/logger"
	"github.com/glowmart/aisearch/internal/metrics"
	"github.com/glowmart/aisearch/internal/ratelimit"
	prefsrepo "github.com/glowmart/aisearch/internal/repository/prefs"
	catalogclient "github.com/glowmart/aisearch/internal/transport/catalog"
	chiTransport "github.com/glowmart/aisearch/internal/transport/chi"
	aiclient "github.com/glowmart/aisearch/internal/transport/openai"
	intentuc "github.com/glowmart/aisearch/internal/usecase/intent"
	"github.com/glowmart/aisearch/internal/usecase/ranking"
	"github.com/glowmart/aisearch/internal/usecase/recommend"
	searchuc "github.com/glowmart/aisearch/internal/usecase/search"
	"github.com/glowmart/aisearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting aisearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create preference store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Preference store not ready", zap.Error(err))
	}
	logger.Info("Connected to preference store")

	// Register metrics explicitly (no init())
	metrics.Register()

	catalog := catalogclient.NewClient(&catalogclient.Config{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	extractor := aiclient.NewExtractor(&aiclient.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Logger:  logger,
	})
	intentSvc := intentuc.New(extractor, intentuc.Options{
		Timeout:       time.Duration(cfg.AI.TimeoutSec) * time.Second,
		MaxRetries:    cfg.AI.MaxRetries,
		MinConfidence: cfg.AI.MinConfidence,
		Fallback:      cfg.FallbackEnabled(),
	}, logger)

	ranker := ranking.New(ranking.DefaultWeights())
	prefRepo := prefsrepo.New(store, cfg.Storage.KeyPrefix)
	limiter := ratelimit.New(ratelimit.Limits{
		SearchesPerMinute:        cfg.RateLimit.SearchesPerMinute,
		ComplexSearchesPerMinute: cfg.RateLimit.ComplexSearchesPerMinute,
		RecommendationsPerMinute: cfg.RateLimit.RecommendationsPerMinute,
	})

	searchSvc := searchuc.New(intentSvc, catalog, ranker, prefRepo, limiter, searchuc.Options{
		MaxCandidates: cfg.Search.MaxCandidates,
		DefaultLimit:  cfg.Search.DefaultLimit,
		MaxLimit:      cfg.Search.MaxLimit,
		CacheTTL:      time.Duration(cfg.Search.CacheTTLSec) * time.Second,
		Fallback:      cfg.FallbackEnabled(),
	}, logger)

	recEngine := recommend.NewEngine(catalog, catalog, ranker, prefRepo, limiter, recommend.Options{
		SimilarLimit:        cfg.Recommendations.SimilarLimit,
		FrequentlyBoughtMax: cfg.Recommendations.FrequentlyBoughtMax,
		CompleteTheLookMax:  cfg.Recommendations.CompleteTheLookMax,
		HomepageSections:    cfg.Recommendations.HomepageSections,
		ProductsPerSection:  cfg.Recommendations.ProductsPerSection,
		MinConfidence:       cfg.Recommendations.MinConfidence,
		BundleDiscount:      cfg.Recommendations.BundleDiscount,
		CacheTTL:            time.Duration(cfg.Recommendations.CacheTTLSec) * time.Second,
	}, logger)

	server := chiTransport.NewServer(searchSvc, recEngine, prefRepo, store, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
