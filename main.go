package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/bensuskins/harvest-planner/internal/config"
	"github.com/bensuskins/harvest-planner/internal/database"
	"github.com/bensuskins/harvest-planner/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		slog.Error("creating server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		slog.Warn("unknown log level, using info", "level", level)
		return slog.LevelInfo
	}
	return parsed
}
