// Command play runs the trading game in a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/talgya/blackmarket/internal/config"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/leaderboard"
	"github.com/talgya/blackmarket/internal/persistence"
	"github.com/talgya/blackmarket/internal/terminal"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Logs would interleave with the game, so they stay off unless asked for.
	var logOut io.Writer = io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))

	var store leaderboard.Store
	if remote := leaderboard.NewRemoteClient(cfg.Leaderboard.URL, cfg.Leaderboard.APIKey, cfg.Leaderboard.Table); remote.Enabled() {
		store = remote
	} else if cfg.Storage.DBPath != "" {
		db, err := persistence.Open(cfg.Storage.DBPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "database:", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	} else {
		store = leaderboard.NewMemory()
	}
	board := leaderboard.NewService(store, cfg.Leaderboard.Limit, cfg.Leaderboard.RefreshAttempts, cfg.Leaderboard.RefreshBackoff)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := entropy.NewFactory(cfg.Entropy.RandomOrgKey, cfg.Entropy.Seed)()
	session := terminal.New(cfg.Rules, src, board, os.Stdout)
	fd := os.Stdin.Fd()
	session.Prompt = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	if err := session.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "input:", err)
		os.Exit(1)
	}
}
