package history

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/mali1sav/music/pkg/storage"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string

	Kind   string
	Page   int
	Size   int
	Output string
}

// Run lists recorded uploads or generations, optionally exporting them as
// csv.
func Run(ctx context.Context, cfg *Config) error {
	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("history: couldn't create orm store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("history: couldn't start orm store: %w", err)
	}

	size := cfg.Size
	if size == 0 {
		size = 100
	}
	switch cfg.Kind {
	case "uploads":
		uploads, err := store.ListUploads(ctx, cfg.Page, size, "created_at desc")
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		if cfg.Output != "" {
			return export(cfg.Output, &uploads)
		}
		for _, u := range uploads {
			log.Printf("history: %s %s %s %s\n", u.CreatedAt.Format("2006-01-02 15:04"), u.Purpose, u.AssignedID, u.File)
		}
	case "generations", "":
		generations, err := store.ListGenerations(ctx, cfg.Page, size, "created_at desc")
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		if cfg.Output != "" {
			return export(cfg.Output, &generations)
		}
		for _, g := range generations {
			log.Printf("history: %s %s %s %s %.1fs\n", g.CreatedAt.Format("2006-01-02 15:04"), g.VoiceID, g.InstrumentalID, g.Format, g.Duration)
		}
	default:
		return fmt.Errorf("history: unknown kind %q", cfg.Kind)
	}
	return nil
}

func export(path string, records interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("history: couldn't create %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(records, f); err != nil {
		return fmt.Errorf("history: couldn't export csv: %w", err)
	}
	log.Println("history:", path)
	return nil
}
