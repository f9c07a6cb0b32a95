package minimax

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestUpload(t *testing.T) {
	tests := []struct {
		name    string
		purpose string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:    "voice upload",
			purpose: PurposeVoice,
			status:  http.StatusOK,
			body:    `{"voice_id":"vocal-123"}`,
			want:    "vocal-123",
		},
		{
			name:    "song upload",
			purpose: PurposeSong,
			status:  http.StatusOK,
			body:    `{"instrumental_id":"instrumental-456"}`,
			want:    "instrumental-456",
		},
		{
			name:    "server error",
			purpose: PurposeVoice,
			status:  http.StatusInternalServerError,
			body:    `{"error":"boom"}`,
			wantErr: true,
		},
		{
			name:    "unauthorized",
			purpose: PurposeSong,
			status:  http.StatusUnauthorized,
			body:    `{}`,
			wantErr: true,
		},
		{
			name:    "missing id",
			purpose: PurposeVoice,
			status:  http.StatusOK,
			body:    `{}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPurpose string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/music_upload" {
					t.Errorf("path = %q; want /v1/music_upload", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
					t.Errorf("authorization = %q; want bearer token", got)
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Fatalf("couldn't parse multipart form: %v", err)
				}
				gotPurpose = r.FormValue("purpose")
				if _, _, err := r.FormFile("file"); err != nil {
					t.Errorf("couldn't read file part: %v", err)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			path := filepath.Join(t.TempDir(), "audio.mp3")
			if err := os.WriteFile(path, []byte("fake mp3"), 0644); err != nil {
				t.Fatal(err)
			}

			client := New(&Config{Token: "test-token", BaseURL: srv.URL})
			got, err := client.Upload(context.Background(), path, tt.purpose)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Upload() err = nil; want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload() err = %v; want nil", err)
			}
			if got != tt.want {
				t.Errorf("Upload() = %q; want %q", got, tt.want)
			}
			if gotPurpose != tt.purpose {
				t.Errorf("purpose field = %q; want %q", gotPurpose, tt.purpose)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    []byte
		wantErr error
	}{
		{
			name:   "hex decoded",
			status: http.StatusOK,
			body:   `{"data":{"audio":"68656c6c6f"}}`,
			want:   []byte("hello"),
		},
		{
			name:    "missing audio field",
			status:  http.StatusOK,
			body:    `{"data":{}}`,
			wantErr: ErrNoAudio,
		},
		{
			name:    "empty data object",
			status:  http.StatusOK,
			body:    `{}`,
			wantErr: ErrNoAudio,
		},
		{
			name:   "malformed hex",
			status: http.StatusOK,
			body:   `{"data":{"audio":"not-hex"}}`,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `{}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/music_generation" {
					t.Errorf("path = %q; want /v1/music_generation", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := New(&Config{Token: "test-token", BaseURL: srv.URL})
			got, err := client.Generate(context.Background(), &GenerateRequest{
				ReferVoice:        "v1",
				ReferInstrumental: "i1",
				Lyrics:            "##line one##",
			})
			if tt.want != nil {
				if err != nil {
					t.Fatalf("Generate() err = %v; want nil", err)
				}
				if string(got) != string(tt.want) {
					t.Errorf("Generate() = %q; want %q", got, tt.want)
				}
				return
			}
			if err == nil {
				t.Fatal("Generate() err = nil; want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() err = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateDefaults(t *testing.T) {
	var got GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("couldn't decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":{"audio":"00"}}`))
	}))
	defer srv.Close()

	client := New(&Config{Token: "test-token", BaseURL: srv.URL})
	if _, err := client.Generate(context.Background(), &GenerateRequest{
		ReferVoice:        "v1",
		ReferInstrumental: "i1",
		Lyrics:            "##line one\nline two##",
	}); err != nil {
		t.Fatalf("Generate() err = %v; want nil", err)
	}
	if got.Model != DefaultModel {
		t.Errorf("model = %q; want %q", got.Model, DefaultModel)
	}
	if got.Stream {
		t.Error("stream = true; want false")
	}
	if got.AudioSetting != DefaultAudioSetting() {
		t.Errorf("audio setting = %+v; want %+v", got.AudioSetting, DefaultAudioSetting())
	}
	if got.ReferVoice != "v1" || got.ReferInstrumental != "i1" {
		t.Errorf("references = %q %q; want v1 i1", got.ReferVoice, got.ReferInstrumental)
	}
}

func TestGenerateKeepsRequestUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"audio":"00"}}`))
	}))
	defer srv.Close()

	client := New(&Config{Token: "test-token", BaseURL: srv.URL})
	req := &GenerateRequest{
		ReferVoice:        "v1",
		ReferInstrumental: "i1",
		Lyrics:            "##line one##",
	}
	if _, err := client.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate() err = %v; want nil", err)
	}
	if req.Model != "" {
		t.Errorf("model = %q; want empty after call", req.Model)
	}
	if req.AudioSetting != (AudioSetting{}) {
		t.Errorf("audio setting = %+v; want zero after call", req.AudioSetting)
	}
}

func TestGenerateRequiresLyrics(t *testing.T) {
	client := New(&Config{Token: "test-token"})
	if _, err := client.Generate(context.Background(), &GenerateRequest{
		ReferVoice:        "v1",
		ReferInstrumental: "i1",
	}); err == nil {
		t.Fatal("Generate() err = nil; want error for empty lyrics")
	}
}
