package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/dashboard"
	"github.com/chain-brief/pkg/db"
	"github.com/chain-brief/pkg/observability"
	"github.com/chain-brief/pkg/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.SetupLogger("info", false)
		log.Fatal().Err(err).Msg("config load failed")
	}
	observability.SetupLogger(cfg.LogLevel, cfg.LogJSON)
	log.Info().Str("chain", string(cfg.Chain)).Msg("chain-brief service starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigCh; log.Info().Msg("shutting down..."); cancel() }()

	p, err := pipeline.Build(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline init failed")
	}

	var history dashboard.History
	if cfg.DBPath != "" {
		store, err := db.NewStore(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("database init failed")
		}
		defer store.Close()
		history = store

		c := cron.New()
		if _, err := c.AddFunc("@hourly", func() { prune(store, cfg.HistoryRetention) }); err != nil {
			log.Fatal().Err(err).Msg("cron schedule failed")
		}
		c.Start()
		defer c.Stop()
		prune(store, cfg.HistoryRetention)
	}

	srv := dashboard.New(p, history, metrics, reg, cfg.RateLimitPerMin)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, cfg.ListenAddr) }()

	printSummary(cfg, history != nil)
	select {
	case <-ctx.Done():
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	}
	log.Info().Msg("goodbye")
}

func prune(store *db.Store, retention time.Duration) {
	n, err := store.PruneBefore(time.Now().Add(-retention))
	if err != nil {
		log.Warn().Err(err).Msg("history prune failed")
		return
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("history pruned")
	}
}

func printSummary(cfg *config.Config, history bool) {
	on := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	fmt.Println("\n" + strings.Repeat("═", 60))
	fmt.Println("  CHAIN BRIEF - RUNNING")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Printf("  Chain:     %s\n", cfg.Chain)
	fmt.Printf("  API:       http://localhost%s/api/brief\n", cfg.ListenAddr)
	fmt.Printf("  Explorer:  %s\n", on(cfg.Explorer.Configured()))
	fmt.Printf("  Labels:    %s\n", on(cfg.Labels.Configured()))
	fmt.Printf("  Portfolio: %s\n", on(cfg.Portfolio.Configured()))
	fmt.Printf("  Trades:    %s\n", on(cfg.Trades.Configured()))
	fmt.Printf("  History:   %s\n", on(history))
	fmt.Println(strings.Repeat("═", 60) + "\n")
}
