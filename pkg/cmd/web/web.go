package web

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mali1sav/music/pkg/filestore"
	"github.com/mali1sav/music/pkg/minimax"
	"github.com/mali1sav/music/pkg/openai"
	"github.com/mali1sav/music/pkg/sound"
	"github.com/mali1sav/music/pkg/storage"
	"github.com/mali1sav/music/pkg/wizard"
	"github.com/mali1sav/music/pkg/ytdlp"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/browser"
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

	OpenAIToken string
	OpenAIModel string

	Addr        string
	Open        bool
	Credentials map[string]string
}

//go:embed static/*
var staticContent embed.FS

// Serve starts the wizard web service.
func Serve(ctx context.Context, cfg *Config) error {
	log.Println("web: server started")
	defer log.Println("web: server ended")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Token == "" {
		return fmt.Errorf("web: api key not set")
	}

	client := minimax.New(&minimax.Config{
		Token: cfg.Token,
		Debug: cfg.Debug,
	})
	fetcher := ytdlp.New(cfg.Bin, cfg.Dir, cfg.Debug)

	var store *storage.Store
	if cfg.DBType != "" {
		candidate, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("web: couldn't create orm store: %w", err)
		}
		if err := candidate.Start(ctx); err != nil {
			return fmt.Errorf("web: couldn't start orm store: %w", err)
		}
		store = candidate
	}
	var fs *filestore.Store
	if cfg.FSType != "" {
		candidate, err := filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("web: couldn't create file storage: %w", err)
		}
		fs = candidate
	}
	var ai *openai.Client
	if cfg.OpenAIToken != "" {
		ai = openai.New(&openai.Config{
			Debug: cfg.Debug,
			Token: cfg.OpenAIToken,
			Model: cfg.OpenAIModel,
		})
	}

	// One session per process. The wizard is a single-user tool; the lock
	// only serializes overlapping clicks.
	var mu sync.Mutex
	session := wizard.New(fetcher, client, client)

	staticFS, err := iofs.Sub(staticContent, "static")
	if err != nil {
		return fmt.Errorf("web: couldn't load static content: %w", err)
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(120 * time.Second))
	if len(cfg.Credentials) > 0 {
		mux.Use(middleware.BasicAuth("private", cfg.Credentials))
	}
	r := mux.Group(func(r chi.Router) {
		if cfg.Debug {
			r.Use(middleware.Logger)
		}
	})

	split := strings.Split(cfg.Addr, ":")
	if len(split) != 2 {
		return fmt.Errorf("web: invalid address: %s", cfg.Addr)
	}
	host := split[0]
	port, err := strconv.Atoi(split[1])
	if err != nil {
		return fmt.Errorf("web: invalid port: %s", split[1])
	}
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}

	mux.Get("/*", http.StripPrefix("/", http.FileServer(http.FS(staticFS))).ServeHTTP)

	state := func() *State {
		return &State{
			Step:           int(session.Step()),
			StepName:       session.Step().String(),
			VoiceID:        session.VoiceID(),
			InstrumentalID: session.InstrumentalID(),
			Lyrics:         session.Lyrics(),
			LyricsAssist:   ai != nil,
		}
	}

	r.Get("/api/session", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		writeJSON(w, state())
	})

	r.Post("/api/session/reset", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		session = wizard.New(fetcher, client, client)
		writeJSON(w, state())
	})

	r.Post("/api/session/advance", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		session.Advance()
		writeJSON(w, state())
	})

	r.Post("/api/session/manual", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			VoiceID        string `json:"voice_id"`
			InstrumentalID string `json:"instrumental_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if err := session.ConfirmManualIDs(in.VoiceID, in.InstrumentalID); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, state())
	})

	r.Post("/api/session/vocals", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		id, err := session.ExtractVocals(req.Context(), in.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		recordUpload(req.Context(), store, minimax.PurposeVoice, in.URL, id)
		writeJSON(w, state())
	})

	r.Post("/api/session/instrumental", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		id, err := session.UploadInstrumental(req.Context(), in.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		recordUpload(req.Context(), store, minimax.PurposeSong, in.URL, id)
		writeJSON(w, state())
	})

	r.Post("/api/session/lyrics", func(w http.ResponseWriter, req *http.Request) {
		if ai == nil {
			http.Error(w, "lyrics assist not configured", http.StatusNotFound)
			return
		}
		var in struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
			return
		}
		msg := fmt.Sprintf("Write short song lyrics, plain lines without section labels, for: %s", in.Prompt)
		text, err := ai.ChatCompletion(req.Context(), msg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]string{"lyrics": text})
	})

	r.Post("/api/session/generate", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Lyrics       string `json:"lyrics"`
			Format       string `json:"format"`
			MixerVolume  int    `json:"mixer_volume"`
			MixerBalance string `json:"mixer_balance"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, fmt.Sprintf("couldn't decode request: %v", err), http.StatusBadRequest)
			return
		}
		format := in.Format
		if format == "" {
			format = "mp3"
		}
		if format != "mp3" && format != "wav" {
			http.Error(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		session.SetLyrics(in.Lyrics)
		audio, err := session.GenerateCover(req.Context(), &wizard.GenerateOptions{
			Format:       format,
			MixerVolume:  in.MixerVolume,
			MixerBalance: in.MixerBalance,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		f, err := os.CreateTemp("", "cover_*."+format)
		if err != nil {
			http.Error(w, fmt.Sprintf("couldn't create temp file: %v", err), http.StatusInternalServerError)
			return
		}
		path := f.Name()
		if _, err := f.Write(audio); err != nil {
			_ = f.Close()
			http.Error(w, fmt.Sprintf("couldn't write temp file: %v", err), http.StatusInternalServerError)
			return
		}
		_ = f.Close()

		var duration float64
		if format == "mp3" {
			if d, err := sound.Duration(audio); err == nil {
				duration = d.Seconds()
			}
		}

		id := ulid.Make().String()
		if fs != nil {
			if err := fs.SetAudio(req.Context(), path, id, format); err != nil {
				log.Println("web: couldn't archive audio:", err)
			}
		}
		if store != nil {
			if err := store.SetGeneration(req.Context(), &storage.Generation{
				ID:             id,
				VoiceID:        session.VoiceID(),
				InstrumentalID: session.InstrumentalID(),
				Lyrics:         in.Lyrics,
				Format:         format,
				Size:           len(audio),
				Duration:       duration,
			}); err != nil {
				log.Println("web: couldn't record generation:", err)
			}
		}

		writeJSON(w, &Cover{
			ID:       id,
			File:     path,
			Duration: duration,
			Audio:    fmt.Sprintf("data:audio/%s;base64,%s", format, base64.StdEncoding.EncodeToString(audio)),
		})
	})

	go func() {
		note := fmt.Sprintf("http://%s:%d", host, port)
		if host == "" {
			note = fmt.Sprintf("all interfaces http://localhost:%d", port)
		}
		log.Printf("Starting server on %s", note)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v\n", err)
			cancel()
		}
	}()
	if cfg.Open {
		u := fmt.Sprintf("http://localhost:%d", port)
		if err := browser.OpenURL(u); err != nil {
			log.Println("web: couldn't open browser:", err)
		}
	}

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("web: couldn't encode response:", err)
	}
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
		log.Println("web: couldn't record upload:", err)
	}
}

type State struct {
	Step           int    `json:"step"`
	StepName       string `json:"step_name"`
	VoiceID        string `json:"voice_id"`
	InstrumentalID string `json:"instrumental_id"`
	Lyrics         string `json:"lyrics"`
	LyricsAssist   bool   `json:"lyrics_assist"`
}

type Cover struct {
	ID       string  `json:"id"`
	File     string  `json:"file"`
	Duration float64 `json:"duration"`
	Audio    string  `json:"audio"`
}
