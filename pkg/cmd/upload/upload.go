package upload

import (
	"context"
	"fmt"
	"log"

	"github.com/mali1sav/music/pkg/minimax"
	"github.com/mali1sav/music/pkg/storage"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug  bool
	Token  string
	DBType string
	DBConn string

	File    string
	Purpose string
}

// Run uploads an audio file to the remote endpoint and prints the assigned
// identifier. When a database is configured, the result is recorded in the
// upload ledger.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Token == "" {
		return fmt.Errorf("upload: api key not set")
	}
	if cfg.File == "" {
		return fmt.Errorf("upload: file not set")
	}
	purpose := cfg.Purpose
	if purpose == "" {
		purpose = minimax.PurposeVoice
	}
	if purpose != minimax.PurposeVoice && purpose != minimax.PurposeSong {
		return fmt.Errorf("upload: unknown purpose %q", purpose)
	}

	client := minimax.New(&minimax.Config{
		Token: cfg.Token,
		Debug: cfg.Debug,
	})
	id, err := client.Upload(ctx, cfg.File, purpose)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	log.Printf("upload: obtained %s id %s\n", purpose, id)

	if cfg.DBType != "" {
		store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("upload: couldn't create orm store: %w", err)
		}
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("upload: couldn't start orm store: %w", err)
		}
		if err := store.SetUpload(ctx, &storage.Upload{
			ID:         ulid.Make().String(),
			Purpose:    purpose,
			File:       cfg.File,
			AssignedID: id,
		}); err != nil {
			return fmt.Errorf("upload: couldn't record upload: %w", err)
		}
	}
	return nil
}
