// Command server runs the stock watchlist and alert service: it tracks a
// watchlist of ticker symbols, refreshes quotes from the market-data
// provider on a fixed interval, evaluates threshold alerts against the
// refreshed snapshots, and publishes triggered-alert and watchlist-change
// events to Kafka for delivery to subscribers.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kmoresby/stock-watchlist/internal/api"
	"github.com/kmoresby/stock-watchlist/internal/config"
	"github.com/kmoresby/stock-watchlist/internal/database"
	"github.com/kmoresby/stock-watchlist/internal/engine"
	"github.com/kmoresby/stock-watchlist/internal/notify"
	"github.com/kmoresby/stock-watchlist/internal/provider"
	"github.com/kmoresby/stock-watchlist/internal/scheduler"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer rdb.Close()

	client := provider.NewClient(provider.ClientConfig{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	}, log.Logger)
	quotes := provider.NewCachedProvider(client, rdb, cfg.Redis.QuoteTTL, log.Logger)

	sink := notify.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer sink.Close()

	watchlist, err := engine.NewWatchlistEngine(db, quotes, sink, cfg.Scheduler.FetchConcurrency, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize watchlist engine")
	}

	alerts, err := engine.NewAlertEngine(db, sink, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize alert engine")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task := scheduler.NewRefreshTask(watchlist, alerts, quotes, db, log.Logger)
	sched := scheduler.New(task, cfg.Scheduler.RefreshInterval, cfg.Scheduler.ErrorBackoff, log.Logger)
	go sched.Run(ctx)

	handler := api.NewHandler(watchlist, alerts, quotes, db)
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: api.SetupRoutes(handler),
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Info().Msg("initiating graceful shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", server.Addr).
		Dur("refresh_interval", cfg.Scheduler.RefreshInterval).
		Msg("server starting")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("failed to serve")
	}
}
