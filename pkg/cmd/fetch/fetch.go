package fetch

import (
	"context"
	"fmt"
	"log"

	"github.com/mali1sav/music/pkg/ytdlp"
)

type Config struct {
	Debug   bool
	Bin     string
	Dir     string
	URL     string
	Purpose string
}

// Run downloads the audio track of a video URL and prints the resulting
// file path.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.URL == "" {
		return fmt.Errorf("fetch: url not set")
	}
	purpose := cfg.Purpose
	if purpose == "" {
		purpose = "audio"
	}
	fetcher := ytdlp.New(cfg.Bin, cfg.Dir, cfg.Debug)
	path, err := fetcher.Fetch(ctx, cfg.URL, purpose)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	log.Println("fetch:", path)
	return nil
}
