// Command cleanup runs a single retention sweep and exits. It is meant for
// cron or one-off operational use next to the in-process scheduler.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/inboxx/inboxx/internal/cleanup"
	"github.com/inboxx/inboxx/internal/config"
	"github.com/inboxx/inboxx/internal/logger"
	"github.com/inboxx/inboxx/internal/repository"
	"github.com/inboxx/inboxx/internal/storage"
)

func main() {
	log := logger.New(logger.DefaultConfig())

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := repository.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	service := cleanup.NewService(
		storage.NewService(&cfg.Storage),
		repository.NewMessageRepository(db),
		repository.NewInboxRepository(db),
		repository.NewEventRepository(db),
		log,
	)

	result, err := service.Run(ctx)
	if err != nil {
		log.Error("Cleanup run failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Error("Failed to encode result", "error", err)
		os.Exit(1)
	}

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
