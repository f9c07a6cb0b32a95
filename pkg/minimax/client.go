package minimax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.minimax.chat"

type Client struct {
	client          *http.Client
	baseURL         string
	token           string
	debug           bool
	uploadTimeout   time.Duration
	generateTimeout time.Duration
}

type Config struct {
	Token   string
	BaseURL string
	Debug   bool
	Client  *http.Client

	// UploadTimeout and GenerateTimeout bound each remote call. They
	// default to 30s and 60s respectively.
	UploadTimeout   time.Duration
	GenerateTimeout time.Duration
}

func New(cfg *Config) *Client {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout == 0 {
		uploadTimeout = 30 * time.Second
	}
	generateTimeout := cfg.GenerateTimeout
	if generateTimeout == 0 {
		generateTimeout = 60 * time.Second
	}
	return &Client{
		client:          client,
		baseURL:         baseURL,
		token:           cfg.Token,
		debug:           cfg.Debug,
		uploadTimeout:   uploadTimeout,
		generateTimeout: generateTimeout,
	}
}

func (c *Client) log(format string, args ...interface{}) {
	if c.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

type errStatusCode int

func (e errStatusCode) Error() string {
	return fmt.Sprintf("%d", e)
}

// do sends a single request and decodes the JSON response into out. There
// is no retry: every failure is terminal for the attempt and reported to
// the caller.
func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	u := c.baseURL + path
	c.log("minimax: do POST %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("minimax: couldn't create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("minimax: couldn't POST %s: %w", u, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("minimax: couldn't read response body: %w", err)
	}
	c.log("minimax: response POST %s %d", u, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMessage := string(respBody)
		if len(errMessage) > 100 {
			errMessage = errMessage[:100] + "..."
		}
		return fmt.Errorf("minimax: POST %s returned (%s): %w", u, errMessage, errStatusCode(resp.StatusCode))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("minimax: couldn't unmarshal response body (%T): %w", out, err)
		}
	}
	return nil
}
