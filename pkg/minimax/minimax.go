package minimax

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// DefaultModel is the music generation model used when none is given.
const DefaultModel = "music-01"

// Purpose tags accepted by the upload endpoint.
const (
	PurposeVoice = "voice"
	PurposeSong  = "song"
)

// ErrNoAudio is returned when a generation response carries no audio data.
var ErrNoAudio = errors.New("minimax: audio data not found in response")

type AudioSetting struct {
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Bitrate    int    `json:"bitrate" yaml:"bitrate"`
	Format     string `json:"format" yaml:"format"`
}

// DefaultAudioSetting returns the audio setting used when a request doesn't
// set one.
func DefaultAudioSetting() AudioSetting {
	return AudioSetting{
		SampleRate: 44100,
		Bitrate:    256000,
		Format:     "mp3",
	}
}

type GenerateRequest struct {
	ReferVoice        string       `json:"refer_voice"`
	ReferInstrumental string       `json:"refer_instrumental"`
	Lyrics            string       `json:"lyrics"`
	Model             string       `json:"model"`
	Stream            bool         `json:"stream"`
	AudioSetting      AudioSetting `json:"audio_setting"`
}

type uploadResponse struct {
	VoiceID        string `json:"voice_id"`
	InstrumentalID string `json:"instrumental_id"`
}

// Upload sends an audio file to the upload endpoint with the given purpose
// tag and returns the server-assigned identifier: a voice id for purpose
// "voice", an instrumental id for purpose "song".
func (c *Client) Upload(ctx context.Context, path, purpose string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("minimax: couldn't open %q: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("minimax: couldn't create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("minimax: couldn't read %q: %w", path, err)
	}
	if err := w.WriteField("purpose", purpose); err != nil {
		return "", fmt.Errorf("minimax: couldn't write purpose field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("minimax: couldn't close multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var resp uploadResponse
	if err := c.do(ctx, "/v1/music_upload", w.FormDataContentType(), &buf, &resp); err != nil {
		return "", err
	}
	id := resp.InstrumentalID
	if purpose == PurposeVoice {
		id = resp.VoiceID
	}
	if id == "" {
		return "", fmt.Errorf("minimax: upload response carries no %s id", purpose)
	}
	c.log("minimax: uploaded %s as %s", path, id)
	return id, nil
}

type generateResponse struct {
	Data struct {
		Audio string `json:"audio"`
	} `json:"data"`
}

// Generate requests a music generation and returns the decoded audio bytes.
// Empty model or audio setting fields are filled with defaults on a copy of
// the request before sending.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	if req.Lyrics == "" {
		return nil, errors.New("minimax: lyrics are required for music generation")
	}
	r := *req
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.AudioSetting == (AudioSetting{}) {
		r.AudioSetting = DefaultAudioSetting()
	}
	body, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("minimax: couldn't marshal request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	var resp generateResponse
	if err := c.do(ctx, "/v1/music_generation", "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	if resp.Data.Audio == "" {
		return nil, ErrNoAudio
	}
	audio, err := hex.DecodeString(resp.Data.Audio)
	if err != nil {
		return nil, fmt.Errorf("minimax: couldn't decode audio data: %w", err)
	}
	return audio, nil
}
