package music

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/mali1sav/music/pkg/minimax"
	"github.com/mali1sav/music/pkg/wizard"
	"github.com/mali1sav/music/pkg/ytdlp"
)

type Config struct {
	Proxy string
	Debug bool
	Token string
	Bin   string
	Dir   string
}

// GenerateCover runs the whole cover chain for a pair of video urls and
// writes the generated audio to the output file.
func GenerateCover(ctx context.Context, cfg *Config, voiceURL, instrumentalURL, lyrics, output string) error {
	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{
			Proxy: http.ProxyURL(u),
		}
	}
	client := minimax.New(&minimax.Config{
		Token:  cfg.Token,
		Debug:  cfg.Debug,
		Client: httpClient,
	})
	fetcher := ytdlp.New(cfg.Bin, cfg.Dir, cfg.Debug)

	session := wizard.New(fetcher, client, client)
	if _, err := session.ExtractVocals(ctx, voiceURL); err != nil {
		return fmt.Errorf("couldn't extract vocals: %w", err)
	}
	session.Advance()
	if _, err := session.UploadInstrumental(ctx, instrumentalURL); err != nil {
		return fmt.Errorf("couldn't upload instrumental: %w", err)
	}
	session.Advance()
	session.SetLyrics(lyrics)
	audio, err := session.GenerateCover(ctx, &wizard.GenerateOptions{})
	if err != nil {
		return fmt.Errorf("couldn't generate cover: %w", err)
	}
	if err := os.WriteFile(output, audio, 0644); err != nil {
		return fmt.Errorf("couldn't write output: %w", err)
	}
	return nil
}
