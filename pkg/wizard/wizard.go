package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/mali1sav/music/pkg/lyrics"
	"github.com/mali1sav/music/pkg/minimax"
)

// Step identifies the wizard step the session is on.
type Step int

const (
	StepSource       Step = iota + 1 // vocal extraction or manual id input
	StepInstrumental                 // instrumental upload
	StepGeneration                   // music generation
)

func (s Step) String() string {
	switch s {
	case StepSource:
		return "source"
	case StepInstrumental:
		return "instrumental"
	case StepGeneration:
		return "generation"
	default:
		return fmt.Sprintf("step-%d", int(s))
	}
}

var (
	// ErrWrongStep is returned when a command is issued on a step that
	// doesn't accept it.
	ErrWrongStep = errors.New("wizard: command not allowed on current step")
	// ErrMissingReference is returned when generation is attempted without
	// both reference ids.
	ErrMissingReference = errors.New("wizard: voice and instrumental ids are required")
	// ErrNoLyrics is returned when generation is attempted without lyrics.
	ErrNoLyrics = errors.New("wizard: lyrics are required")
)

type Fetcher interface {
	Fetch(ctx context.Context, url, purpose string) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, path, purpose string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, req *minimax.GenerateRequest) ([]byte, error)
}

// Session holds the state of one cover-creation flow. It is owned by a
// single actor and lives in memory only: nothing survives the session.
type Session struct {
	step           Step
	voiceID        string
	instrumentalID string
	lyrics         string

	fetcher   Fetcher
	uploader  Uploader
	generator Generator
}

func New(fetcher Fetcher, uploader Uploader, generator Generator) *Session {
	return &Session{
		step:      StepSource,
		fetcher:   fetcher,
		uploader:  uploader,
		generator: generator,
	}
}

func (s *Session) Step() Step             { return s.step }
func (s *Session) VoiceID() string        { return s.voiceID }
func (s *Session) InstrumentalID() string { return s.instrumentalID }
func (s *Session) Lyrics() string         { return s.lyrics }

// Advance moves the session to the next step. The generation step is the
// last one: the session stays there and can generate repeatedly.
func (s *Session) Advance() {
	if s.step < StepGeneration {
		s.step++
	}
}

// ConfirmManualIDs records previously obtained ids and jumps straight to
// the generation step, skipping the instrumental upload.
func (s *Session) ConfirmManualIDs(voiceID, instrumentalID string) error {
	if s.step != StepSource {
		return fmt.Errorf("%w: confirm ids on %s", ErrWrongStep, s.step)
	}
	if voiceID == "" || instrumentalID == "" {
		return ErrMissingReference
	}
	s.voiceID = voiceID
	s.instrumentalID = instrumentalID
	s.step = StepGeneration
	return nil
}

// ExtractVocals fetches the audio of the given URL and uploads it as a
// voice reference. The session stays on the source step until Advance is
// called explicitly; a failed upload can be retried in place.
func (s *Session) ExtractVocals(ctx context.Context, url string) (string, error) {
	if s.step != StepSource {
		return "", fmt.Errorf("%w: extract vocals on %s", ErrWrongStep, s.step)
	}
	path, err := s.fetcher.Fetch(ctx, url, "voice")
	if err != nil {
		return "", err
	}
	id, err := s.uploader.Upload(ctx, path, minimax.PurposeVoice)
	if err != nil {
		return "", err
	}
	s.voiceID = id
	return id, nil
}

// UploadInstrumental fetches the audio of the given URL and uploads it as
// an instrumental reference.
func (s *Session) UploadInstrumental(ctx context.Context, url string) (string, error) {
	if s.step != StepInstrumental {
		return "", fmt.Errorf("%w: upload instrumental on %s", ErrWrongStep, s.step)
	}
	path, err := s.fetcher.Fetch(ctx, url, "instrumental")
	if err != nil {
		return "", err
	}
	id, err := s.uploader.Upload(ctx, path, minimax.PurposeSong)
	if err != nil {
		return "", err
	}
	s.instrumentalID = id
	return id, nil
}

func (s *Session) SetLyrics(text string) {
	s.lyrics = text
}

// GenerateOptions carries the user choices of the generation step. Mixer
// volume and balance are collected by the form but the generation endpoint
// has no field for them, so they are not forwarded. Format only selects the
// suffix and MIME type of the output artifact.
type GenerateOptions struct {
	Model        string
	Format       string
	MixerVolume  int
	MixerBalance string
}

// GenerateCover formats the current lyrics and requests a generation using
// the stored references. On failure the session stays on the generation
// step so the attempt can be repeated.
func (s *Session) GenerateCover(ctx context.Context, opts *GenerateOptions) ([]byte, error) {
	if s.step != StepGeneration {
		return nil, fmt.Errorf("%w: generate on %s", ErrWrongStep, s.step)
	}
	if s.voiceID == "" || s.instrumentalID == "" {
		return nil, ErrMissingReference
	}
	if s.lyrics == "" {
		return nil, ErrNoLyrics
	}
	if opts == nil {
		opts = &GenerateOptions{}
	}
	req := &minimax.GenerateRequest{
		ReferVoice:        s.voiceID,
		ReferInstrumental: s.instrumentalID,
		Lyrics:            lyrics.Format(s.lyrics),
		Model:             opts.Model,
	}
	audio, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return audio, nil
}
