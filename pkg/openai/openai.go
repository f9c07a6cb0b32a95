package openai

import (
	"context"
	"fmt"
	"log"

	gopenai "github.com/sashabaranov/go-openai"
)

type Client struct {
	client *gopenai.Client
	model  string
	debug  bool
}

type Config struct {
	Debug bool
	Token string
	Model string
}

func New(cfg *Config) *Client {
	model := cfg.Model
	if model == "" {
		model = gopenai.GPT4oMini
	}
	return &Client{
		client: gopenai.NewClient(cfg.Token),
		model:  model,
		debug:  cfg.Debug,
	}
}

func (c *Client) log(format string, args ...interface{}) {
	if c.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

// ChatCompletion sends a single user message and returns the completion
// text.
func (c *Client) ChatCompletion(ctx context.Context, msg string) (string, error) {
	c.log("openai: chat completion %q", msg)
	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{
				Role:    gopenai.ChatMessageRoleUser,
				Content: msg,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: couldn't create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
