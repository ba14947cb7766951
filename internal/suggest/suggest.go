// Package suggest generates message prompts by calling an OpenAI-compatible
// chat-completions endpoint. The model's reply is expected to contain
// suggestions separated by "||".
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const suggestionPrompt = "Create a list of three open-ended and engaging questions formatted as a single string. " +
	"Each question should be separated by '||'. These questions are for an anonymous social messaging platform " +
	"and should be suitable for a diverse audience. Avoid personal or sensitive topics, focusing instead on " +
	"universal themes that encourage friendly interaction. Ensure the questions are intriguing, foster curiosity, " +
	"and contribute to a positive conversational environment."

var (
	ErrNoSuggestions = errors.New("no suggestions generated")
	ErrUpstream      = errors.New("suggestion provider request failed")
)

// Suggester produces a list of suggested message prompts.
type Suggester interface {
	SuggestMessages(ctx context.Context) ([]string, error)
}

// Client calls the chat-completions API of an OpenAI-compatible provider.
type Client struct {
	config     *clientConfig
	httpClient *http.Client
}

// NewClient creates a Client configured from the environment.
func NewClient(logger *zerolog.Logger) *Client {
	cfg := newClientConfig(logger)

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate suggestion client configuration")
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// SuggestMessages asks the provider for suggestions and splits its reply on "||".
func (c *Client) SuggestMessages(ctx context.Context) ([]string, error) {
	payload := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an assistant generating suggestions."},
			{Role: "user", Content: suggestionPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(completion.Choices) == 0 {
		return nil, ErrNoSuggestions
	}

	return splitSuggestions(completion.Choices[0].Message.Content), nil
}

func splitSuggestions(content string) []string {
	var suggestions []string
	for _, part := range strings.Split(content, "||") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			suggestions = append(suggestions, trimmed)
		}
	}
	return suggestions
}

// clientConfig holds settings for the suggestion provider.
type clientConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string `env:"OPENAI_MODEL"    envDefault:"gpt-3.5-turbo"`
}

func newClientConfig(logger *zerolog.Logger) *clientConfig {
	cfg, err := env.ParseAs[clientConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	return &cfg
}

func (c *clientConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing OPENAI_API_KEY environment variable")
	}

	return nil
}
