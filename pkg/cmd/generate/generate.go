package generate

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mali1sav/music/pkg/filestore"
	"github.com/mali1sav/music/pkg/lyrics"
	"github.com/mali1sav/music/pkg/minimax"
	"github.com/mali1sav/music/pkg/sound"
	"github.com/mali1sav/music/pkg/storage"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Debug  bool
	Token  string
	DBType string
	DBConn string
	FSType string
	FSConn string

	VoiceID        string
	InstrumentalID string
	Lyrics         string
	Input          string
	Model          string
	Format         string
	Presets        string
	Preset         string
	Output         string
}

// Run requests a music generation from previously uploaded references and
// writes the resulting audio to a file.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("generate: started")
	defer log.Println("generate: ended")

	debug := func(format string, args ...interface{}) {
		if !cfg.Debug {
			return
		}
		format += "\n"
		log.Printf(format, args...)
	}

	if cfg.Token == "" {
		return fmt.Errorf("generate: api key not set")
	}
	if cfg.VoiceID == "" || cfg.InstrumentalID == "" {
		return fmt.Errorf("generate: voice and instrumental ids are required")
	}
	raw := cfg.Lyrics
	if cfg.Input != "" {
		b, err := os.ReadFile(cfg.Input)
		if err != nil {
			return fmt.Errorf("generate: couldn't read lyrics file: %w", err)
		}
		raw = string(b)
	}
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("generate: lyrics are required")
	}

	var setting minimax.AudioSetting
	if cfg.Preset != "" {
		candidate, err := loadPreset(cfg.Presets, cfg.Preset)
		if err != nil {
			return err
		}
		setting = candidate
	}
	format := cfg.Format
	if format == "" {
		format = "mp3"
	}
	if format != "mp3" && format != "wav" {
		return fmt.Errorf("generate: unsupported output format %q", format)
	}

	client := minimax.New(&minimax.Config{
		Token: cfg.Token,
		Debug: cfg.Debug,
	})
	formatted := lyrics.Format(raw)
	debug("generate: lyrics %q", formatted)
	audio, err := client.Generate(ctx, &minimax.GenerateRequest{
		ReferVoice:        cfg.VoiceID,
		ReferInstrumental: cfg.InstrumentalID,
		Lyrics:            formatted,
		Model:             cfg.Model,
		AudioSetting:      setting,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	output := cfg.Output
	if output == "" {
		f, err := os.CreateTemp("", "cover_*."+format)
		if err != nil {
			return fmt.Errorf("generate: couldn't create temp file: %w", err)
		}
		output = f.Name()
		_ = f.Close()
	}
	if err := os.WriteFile(output, audio, 0644); err != nil {
		return fmt.Errorf("generate: couldn't write %s: %w", output, err)
	}
	log.Println("generate:", output)

	var duration float64
	if format == "mp3" {
		d, err := sound.Duration(audio)
		if err != nil {
			debug("generate: couldn't probe duration: %v", err)
		} else {
			duration = d.Seconds()
			log.Printf("generate: duration %.1fs\n", duration)
		}
	}

	id := ulid.Make().String()
	if cfg.FSType != "" {
		fs, err := filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("generate: couldn't create file storage: %w", err)
		}
		if err := fs.SetAudio(ctx, output, id, format); err != nil {
			return fmt.Errorf("generate: couldn't archive audio: %w", err)
		}
	}
	if cfg.DBType != "" {
		store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("generate: couldn't create orm store: %w", err)
		}
		if err := store.Start(ctx); err != nil {
			return fmt.Errorf("generate: couldn't start orm store: %w", err)
		}
		if err := store.SetGeneration(ctx, &storage.Generation{
			ID:             id,
			VoiceID:        cfg.VoiceID,
			InstrumentalID: cfg.InstrumentalID,
			Lyrics:         raw,
			Model:          cfg.Model,
			Format:         format,
			Size:           len(audio),
			Duration:       duration,
		}); err != nil {
			return fmt.Errorf("generate: couldn't record generation: %w", err)
		}
	}
	return nil
}

// loadPreset reads a named audio setting from a yaml file mapping preset
// names to settings.
func loadPreset(path, name string) (minimax.AudioSetting, error) {
	if path == "" {
		return minimax.AudioSetting{}, fmt.Errorf("generate: presets file not set")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return minimax.AudioSetting{}, fmt.Errorf("generate: couldn't read presets file: %w", err)
	}
	var presets map[string]minimax.AudioSetting
	if err := yaml.Unmarshal(b, &presets); err != nil {
		return minimax.AudioSetting{}, fmt.Errorf("generate: couldn't unmarshal presets: %w", err)
	}
	setting, ok := presets[name]
	if !ok {
		return minimax.AudioSetting{}, fmt.Errorf("generate: unknown preset %q", name)
	}
	return setting, nil
}
