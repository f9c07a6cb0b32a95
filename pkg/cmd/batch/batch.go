package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/mali1sav/music/pkg/cmd/cover"
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

	Input  string
	Output string
	Limit  int
	Format string
	Model  string
}

type job struct {
	Title           string `json:"title" csv:"title"`
	VoiceURL        string `json:"voice_url" csv:"voice_url"`
	InstrumentalURL string `json:"instrumental_url" csv:"instrumental_url"`
	VoiceID         string `json:"voice_id" csv:"voice_id"`
	InstrumentalID  string `json:"instrumental_id" csv:"instrumental_id"`
	Lyrics          string `json:"lyrics" csv:"lyrics"`
	LyricsFile      string `json:"lyrics_file" csv:"lyrics_file"`
}

// Run processes cover jobs from a csv or json file, one full chain per
// row. A failed job is logged and doesn't stop the rest.
func Run(ctx context.Context, cfg *Config) error {
	var count int
	log.Println("batch: started")
	defer func() {
		log.Printf("batch: ended (%d)\n", count)
	}()

	debug := func(format string, args ...interface{}) {
		if !cfg.Debug {
			return
		}
		format += "\n"
		log.Printf(format, args...)
	}

	b, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("batch: couldn't read input file: %w", err)
	}

	ext := filepath.Ext(cfg.Input)
	var unmarshal func([]byte) ([]*job, error)
	switch ext {
	case ".json":
		unmarshal = func(b []byte) ([]*job, error) {
			var js []*job
			if err := json.Unmarshal(b, &js); err != nil {
				return nil, fmt.Errorf("couldn't unmarshal jobs: %w", err)
			}
			return js, nil
		}
	case ".csv":
		unmarshal = func(b []byte) ([]*job, error) {
			var js []*job
			if err := gocsv.UnmarshalBytes(b, &js); err != nil {
				return nil, fmt.Errorf("couldn't unmarshal jobs: %w", err)
			}
			return js, nil
		}
	default:
		return fmt.Errorf("batch: unsupported input format: %s", ext)
	}
	jobs, err := unmarshal(b)
	if err != nil {
		return fmt.Errorf("batch: couldn't unmarshal input: %w", err)
	}

	format := cfg.Format
	if format == "" {
		format = "mp3"
	}
	for i, j := range jobs {
		if cfg.Limit > 0 && count >= cfg.Limit {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("batch: %w", ctx.Err())
		default:
		}
		title := j.Title
		if title == "" {
			title = fmt.Sprintf("job_%d", i+1)
		}
		debug("batch: %s", title)

		var output string
		if cfg.Output != "" {
			output = filepath.Join(cfg.Output, fmt.Sprintf("%s.%s", title, format))
		}
		if err := cover.Run(ctx, &cover.Config{
			Debug:           cfg.Debug,
			Token:           cfg.Token,
			Bin:             cfg.Bin,
			Dir:             cfg.Dir,
			DBType:          cfg.DBType,
			DBConn:          cfg.DBConn,
			FSType:          cfg.FSType,
			FSConn:          cfg.FSConn,
			VoiceURL:        j.VoiceURL,
			InstrumentalURL: j.InstrumentalURL,
			VoiceID:         j.VoiceID,
			InstrumentalID:  j.InstrumentalID,
			Lyrics:          j.Lyrics,
			Input:           j.LyricsFile,
			Model:           cfg.Model,
			Format:          format,
			Output:          output,
		}); err != nil {
			log.Printf("batch: job %s failed: %v\n", title, err)
			continue
		}
		count++
	}
	return nil
}
