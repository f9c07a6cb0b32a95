package cover

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mali1sav/music/pkg/filestore"
	"github.com/mali1sav/music/pkg/minimax"
	"github.com/mali1sav/music/pkg/openai"
	"github.com/mali1sav/music/pkg/sound"
	"github.com/mali1sav/music/pkg/storage"
	"github.com/mali1sav/music/pkg/wizard"
	"github.com/mali1sav/music/pkg/ytdlp"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug  bool
	Token  string
	Bin    string
	Dir    string
	DBType string
	DBConn string
	FSType string
	FSConn string

	// Either both URLs or both ids must be given.
	VoiceURL        string
	InstrumentalURL string
	VoiceID         string
	InstrumentalID  string

	Lyrics string
	Input  string

	// Prompt generates lyrics with the chat model when none are given.
	Prompt      string
	OpenAIToken string
	OpenAIModel string

	Model  string
	Format string
	Output string
}

// Run drives the whole cover chain in one go: fetch and upload both audio
// sources (or take previously assigned ids), then generate and write the
// cover.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("cover: started")
	defer log.Println("cover: ended")

	debug := func(format string, args ...interface{}) {
		if !cfg.Debug {
			return
		}
		format += "\n"
		log.Printf(format, args...)
	}

	if cfg.Token == "" {
		return fmt.Errorf("cover: api key not set")
	}
	manual := cfg.VoiceID != "" && cfg.InstrumentalID != ""
	if !manual && (cfg.VoiceURL == "" || cfg.InstrumentalURL == "") {
		return fmt.Errorf("cover: voice and instrumental sources are required")
	}

	raw, err := resolveLyrics(ctx, cfg, debug)
	if err != nil {
		return err
	}

	client := minimax.New(&minimax.Config{
		Token: cfg.Token,
		Debug: cfg.Debug,
	})
	fetcher := ytdlp.New(cfg.Bin, cfg.Dir, cfg.Debug)
	session := wizard.New(fetcher, client, client)

	var store *storage.Store
	if cfg.DBType != "" {
		store, err = storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("cover: couldn't create orm store: %w", err)
		}
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("cover: couldn't start orm store: %w", err)
		}
	}

	if manual {
		if err := session.ConfirmManualIDs(cfg.VoiceID, cfg.InstrumentalID); err != nil {
			return fmt.Errorf("cover: %w", err)
		}
	} else {
		voiceID, err := session.ExtractVocals(ctx, cfg.VoiceURL)
		if err != nil {
			return fmt.Errorf("cover: %w", err)
		}
		log.Println("cover: obtained voice id", voiceID)
		recordUpload(ctx, store, minimax.PurposeVoice, cfg.VoiceURL, voiceID)
		session.Advance()

		instrumentalID, err := session.UploadInstrumental(ctx, cfg.InstrumentalURL)
		if err != nil {
			return fmt.Errorf("cover: %w", err)
		}
		log.Println("cover: obtained instrumental id", instrumentalID)
		recordUpload(ctx, store, minimax.PurposeSong, cfg.InstrumentalURL, instrumentalID)
		session.Advance()
	}

	session.SetLyrics(raw)
	format := cfg.Format
	if format == "" {
		format = "mp3"
	}
	audio, err := session.GenerateCover(ctx, &wizard.GenerateOptions{
		Model:  cfg.Model,
		Format: format,
	})
	if err != nil {
		return fmt.Errorf("cover: %w", err)
	}

	output := cfg.Output
	if output == "" {
		f, err := os.CreateTemp("", "cover_*."+format)
		if err != nil {
			return fmt.Errorf("cover: couldn't create temp file: %w", err)
		}
		output = f.Name()
		_ = f.Close()
	}
	if err := os.WriteFile(output, audio, 0644); err != nil {
		return fmt.Errorf("cover: couldn't write %s: %w", output, err)
	}
	log.Println("cover:", output)

	var duration float64
	if format == "mp3" {
		if d, err := sound.Duration(audio); err == nil {
			duration = d.Seconds()
			log.Printf("cover: duration %.1fs\n", duration)
		}
	}

	id := ulid.Make().String()
	if cfg.FSType != "" {
		fs, err := filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("cover: couldn't create file storage: %w", err)
		}
		if err := fs.SetAudio(ctx, output, id, format); err != nil {
			return fmt.Errorf("cover: couldn't archive audio: %w", err)
		}
	}
	if store != nil {
		if err := store.SetGeneration(ctx, &storage.Generation{
			ID:             id,
			VoiceID:        session.VoiceID(),
			InstrumentalID: session.InstrumentalID(),
			Lyrics:         raw,
			Model:          cfg.Model,
			Format:         format,
			Size:           len(audio),
			Duration:       duration,
		}); err != nil {
			return fmt.Errorf("cover: couldn't record generation: %w", err)
		}
	}
	return nil
}

func resolveLyrics(ctx context.Context, cfg *Config, debug func(string, ...interface{})) (string, error) {
	raw := cfg.Lyrics
	if cfg.Input != "" {
		b, err := os.ReadFile(cfg.Input)
		if err != nil {
			return "", fmt.Errorf("cover: couldn't read lyrics file: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) != "" {
		return raw, nil
	}
	if cfg.Prompt == "" {
		return "", fmt.Errorf("cover: lyrics are required")
	}
	if cfg.OpenAIToken == "" {
		return "", fmt.Errorf("cover: openai key not set")
	}
	ai := openai.New(&openai.Config{
		Debug: cfg.Debug,
		Token: cfg.OpenAIToken,
		Model: cfg.OpenAIModel,
	})
	msg := fmt.Sprintf("Write short song lyrics, plain lines without section labels, for: %s", cfg.Prompt)
	candidate, err := ai.ChatCompletion(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("cover: couldn't generate lyrics: %w", err)
	}
	debug("cover: generated lyrics %q", candidate)
	return candidate, nil
}

func recordUpload(ctx context.Context, store *storage.Store, purpose, file, id string) {
	if store == nil {
		return
	}
	if err := store.SetUpload(ctx, &storage.Upload{
		ID:         ulid.Make().String(),
		Purpose:    purpose,
		File:       file,
		AssignedID: id,
	}); err != nil {
		log.Println("cover: couldn't record upload:", err)
	}
}
