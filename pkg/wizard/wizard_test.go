package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mali1sav/music/pkg/minimax"
)

type fakeFetcher struct {
	paths map[string]string
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, purpose string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%s_%s.mp3", purpose, f.paths[url]), nil
}

type fakeUploader struct {
	ids map[string]string
	err error
}

func (u *fakeUploader) Upload(ctx context.Context, path, purpose string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.ids[purpose], nil
}

type fakeGenerator struct {
	req   *minimax.GenerateRequest
	audio []byte
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, req *minimax.GenerateRequest) ([]byte, error) {
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return g.audio, nil
}

func newSession(f *fakeFetcher, u *fakeUploader, g *fakeGenerator) *Session {
	if f == nil {
		f = &fakeFetcher{paths: map[string]string{}}
	}
	if u == nil {
		u = &fakeUploader{ids: map[string]string{}}
	}
	if g == nil {
		g = &fakeGenerator{audio: []byte("audio")}
	}
	return New(f, u, g)
}

func TestConfirmManualIDs(t *testing.T) {
	s := newSession(nil, nil, nil)
	if err := s.ConfirmManualIDs("vocal-2024101206134524-2988", "instrumental-2024101206134524-2973"); err != nil {
		t.Fatalf("ConfirmManualIDs() err = %v; want nil", err)
	}
	if s.Step() != StepGeneration {
		t.Errorf("step = %s; want generation", s.Step())
	}
	if s.VoiceID() != "vocal-2024101206134524-2988" {
		t.Errorf("voice id = %q; want entered value", s.VoiceID())
	}
	if s.InstrumentalID() != "instrumental-2024101206134524-2973" {
		t.Errorf("instrumental id = %q; want entered value", s.InstrumentalID())
	}
}

func TestConfirmManualIDsValidation(t *testing.T) {
	s := newSession(nil, nil, nil)
	if err := s.ConfirmManualIDs("", "i1"); !errors.Is(err, ErrMissingReference) {
		t.Errorf("ConfirmManualIDs() err = %v; want ErrMissingReference", err)
	}
	if s.Step() != StepSource {
		t.Errorf("step = %s; want source after failed confirm", s.Step())
	}
}

func TestExtractVocals(t *testing.T) {
	f := &fakeFetcher{paths: map[string]string{"https://youtu.be/abc": "title"}}
	u := &fakeUploader{ids: map[string]string{minimax.PurposeVoice: "vocal-1"}}
	s := newSession(f, u, nil)

	id, err := s.ExtractVocals(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("ExtractVocals() err = %v; want nil", err)
	}
	if id != "vocal-1" || s.VoiceID() != "vocal-1" {
		t.Errorf("voice id = %q; want vocal-1", s.VoiceID())
	}
	if s.Step() != StepSource {
		t.Errorf("step = %s; want source until explicit advance", s.Step())
	}
	s.Advance()
	if s.Step() != StepInstrumental {
		t.Errorf("step = %s; want instrumental after advance", s.Step())
	}
}

func TestExtractVocalsFailureKeepsStep(t *testing.T) {
	f := &fakeFetcher{err: errors.New("no file produced")}
	s := newSession(f, nil, nil)
	if _, err := s.ExtractVocals(context.Background(), "https://youtu.be/abc"); err == nil {
		t.Fatal("ExtractVocals() err = nil; want error")
	}
	if s.Step() != StepSource {
		t.Errorf("step = %s; want source after failure", s.Step())
	}
	if s.VoiceID() != "" {
		t.Errorf("voice id = %q; want empty after failure", s.VoiceID())
	}
}

func TestUploadInstrumentalPurpose(t *testing.T) {
	var gotPurpose string
	u := &fakeUploader{ids: map[string]string{minimax.PurposeSong: "instrumental-1"}}
	f := &fakeFetcher{paths: map[string]string{"https://youtu.be/xyz": "title"}}
	s := newSession(f, u, nil)
	s.Advance()

	uploader := uploaderFunc(func(ctx context.Context, path, purpose string) (string, error) {
		gotPurpose = purpose
		return u.Upload(ctx, path, purpose)
	})
	s.uploader = uploader

	id, err := s.UploadInstrumental(context.Background(), "https://youtu.be/xyz")
	if err != nil {
		t.Fatalf("UploadInstrumental() err = %v; want nil", err)
	}
	if id != "instrumental-1" {
		t.Errorf("instrumental id = %q; want instrumental-1", id)
	}
	if gotPurpose != minimax.PurposeSong {
		t.Errorf("upload purpose = %q; want %q", gotPurpose, minimax.PurposeSong)
	}
	if s.Step() != StepInstrumental {
		t.Errorf("step = %s; want instrumental until explicit advance", s.Step())
	}
}

type uploaderFunc func(ctx context.Context, path, purpose string) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, path, purpose string) (string, error) {
	return f(ctx, path, purpose)
}

func TestGenerateCoverValidation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(s *Session)
		wantErr error
	}{
		{
			name:    "wrong step",
			setup:   func(s *Session) {},
			wantErr: ErrWrongStep,
		},
		{
			name: "missing references",
			setup: func(s *Session) {
				s.Advance()
				s.Advance()
				s.SetLyrics("la la")
			},
			wantErr: ErrMissingReference,
		},
		{
			name: "missing lyrics",
			setup: func(s *Session) {
				_ = s.ConfirmManualIDs("v1", "i1")
			},
			wantErr: ErrNoLyrics,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(nil, nil, nil)
			tt.setup(s)
			if _, err := s.GenerateCover(context.Background(), nil); !errors.Is(err, tt.wantErr) {
				t.Errorf("GenerateCover() err = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateCoverEndToEnd(t *testing.T) {
	g := &fakeGenerator{audio: []byte("audio bytes")}
	s := newSession(nil, nil, g)
	if err := s.ConfirmManualIDs("v1", "i1"); err != nil {
		t.Fatal(err)
	}
	s.SetLyrics("line one\nline two")

	audio, err := s.GenerateCover(context.Background(), &GenerateOptions{
		Format:       "mp3",
		MixerVolume:  75,
		MixerBalance: "center",
	})
	if err != nil {
		t.Fatalf("GenerateCover() err = %v; want nil", err)
	}
	if string(audio) != "audio bytes" {
		t.Errorf("audio = %q; want generator output", audio)
	}
	if g.req.ReferVoice != "v1" || g.req.ReferInstrumental != "i1" {
		t.Errorf("references = %q %q; want v1 i1", g.req.ReferVoice, g.req.ReferInstrumental)
	}
	if g.req.Lyrics != "##line one\nline two##" {
		t.Errorf("lyrics = %q; want delimited block", g.req.Lyrics)
	}
	if g.req.Model != "" {
		t.Errorf("model = %q; want empty so the client fills music-01", g.req.Model)
	}
	if g.req.Stream {
		t.Error("stream = true; want false")
	}
}

func TestGenerateCoverFailureAllowsRetry(t *testing.T) {
	g := &fakeGenerator{err: minimax.ErrNoAudio}
	s := newSession(nil, nil, g)
	if err := s.ConfirmManualIDs("v1", "i1"); err != nil {
		t.Fatal(err)
	}
	s.SetLyrics("line one")

	if _, err := s.GenerateCover(context.Background(), nil); !errors.Is(err, minimax.ErrNoAudio) {
		t.Fatalf("GenerateCover() err = %v; want ErrNoAudio", err)
	}
	if s.Step() != StepGeneration {
		t.Errorf("step = %s; want generation after failure", s.Step())
	}

	g.err = nil
	g.audio = []byte("ok")
	if _, err := s.GenerateCover(context.Background(), nil); err != nil {
		t.Errorf("retry err = %v; want nil", err)
	}
}
