package lyrics

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mali1sav/music/pkg/openai"
)

type Config struct {
	Debug  bool
	Token  string
	Model  string
	Prompt string
	Output string
}

// Run generates song lyrics from a prompt using the chat model and prints
// them or writes them to a file.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Prompt == "" {
		return fmt.Errorf("lyrics: prompt not set")
	}
	if cfg.Token == "" {
		return fmt.Errorf("lyrics: openai key not set")
	}
	client := openai.New(&openai.Config{
		Debug: cfg.Debug,
		Token: cfg.Token,
		Model: cfg.Model,
	})
	msg := fmt.Sprintf("Write short song lyrics, plain lines without section labels, for: %s", cfg.Prompt)
	text, err := client.ChatCompletion(ctx, msg)
	if err != nil {
		return fmt.Errorf("lyrics: %w", err)
	}
	if cfg.Output == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(cfg.Output, []byte(text), 0644); err != nil {
		return fmt.Errorf("lyrics: couldn't write %s: %w", cfg.Output, err)
	}
	log.Println("lyrics:", cfg.Output)
	return nil
}
