// Command blackmarket serves the trading game over HTTP and WebSocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/blackmarket/internal/api"
	"github.com/talgya/blackmarket/internal/config"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/leaderboard"
	"github.com/talgya/blackmarket/internal/persistence"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("blackmarket starting",
		"days", cfg.Rules.Days,
		"start_cash", cfg.Rules.StartCash,
		"price_model", cfg.Rules.PriceModel,
		"event_chance", cfg.Rules.EventChance,
	)

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Storage.DBPath != "" {
		db, err = persistence.Open(cfg.Storage.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Storage.DBPath)
	}

	// ── Leaderboard ───────────────────────────────────────────────────
	var store leaderboard.Store
	switch remote := leaderboard.NewRemoteClient(cfg.Leaderboard.URL, cfg.Leaderboard.APIKey, cfg.Leaderboard.Table); {
	case remote.Enabled():
		store = remote
		slog.Info("leaderboard: remote", "url", cfg.Leaderboard.URL, "table", cfg.Leaderboard.Table)
	case db != nil:
		store = db
		slog.Info("leaderboard: sqlite")
	default:
		store = leaderboard.NewMemory()
		slog.Warn("leaderboard: in memory only, scores are lost on exit")
	}
	board := leaderboard.NewService(store, cfg.Leaderboard.Limit, cfg.Leaderboard.RefreshAttempts, cfg.Leaderboard.RefreshBackoff)

	// ── Entropy ───────────────────────────────────────────────────────
	switch {
	case cfg.Entropy.RandomOrgKey != "":
		slog.Info("entropy: random.org with crypto fallback")
	case cfg.Entropy.Seed != 0:
		slog.Info("entropy: seeded", "seed", cfg.Entropy.Seed)
	default:
		slog.Info("entropy: crypto/rand")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	srv := &api.Server{
		Rules:       cfg.Rules,
		NewSource:   entropy.NewFactory(cfg.Entropy.RandomOrgKey, cfg.Entropy.Seed),
		Board:       board,
		Port:        cfg.Server.Port,
		TokenSecret: cfg.Server.TokenSecret,
		CORSOrigins: cfg.Server.CORSOrigins,
		ScoreLimit:  cfg.Server.ScoreRateLimit,
		MaxGames:    cfg.Server.MaxGames,
		TrustProxy:  cfg.Server.TrustProxy,
	}
	if db != nil {
		srv.Journal = db
		srv.Counter = db
	}
	httpServer := srv.Start()

	fmt.Printf("\nThe market is open: http://localhost:%d/api/v1/status\n", cfg.Server.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	fmt.Println("Market closed.")
}
