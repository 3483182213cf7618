// Package generation turns a natural-language instruction into Mermaid
// diagram source via an external chat-completion provider.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arnstad/sigil/internal/apperr"
	"github.com/arnstad/sigil/internal/credentials"
	"github.com/arnstad/sigil/internal/settings"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 90 * time.Second

	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
)

// testPrompt is the fixed instruction used by TestConnection.
const testPrompt = "Reply with the single word OK."

// Client is a stateless request/response wrapper around the provider.
type Client struct {
	client   *http.Client
	baseURL  string
	settings *settings.Store
	creds    *credentials.Store
}

// Config holds client construction options.
type Config struct {
	// BaseURL is the provider API base URL (default: api.openai.com/v1).
	BaseURL string
	// Timeout bounds each provider call (default: 90s).
	Timeout time.Duration
}

// New creates a generation client. Model name is read from settings and
// the API key from the credential store on every call.
func New(st *settings.Store, creds *credentials.Store, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		settings: st,
		creds:    creds,
	}
}

// chatCompletionRequest is the provider /chat/completions request format.
// Exactly one of MaxTokens / MaxCompletionTokens is populated, selected
// by the model's parameter profile.
type chatCompletionRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the provider /chat/completions response format.
type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate produces cleaned Mermaid source for the instruction.
// When existing is non-empty the provider is asked to modify it,
// otherwise to create a diagram from scratch.
func (c *Client) Generate(ctx context.Context, prompt, existing string) (string, error) {
	reply, _, err := c.complete(ctx, buildUserMessage(prompt, existing))
	if err != nil {
		return "", err
	}
	cleaned := stripFences(reply)
	if cleaned == "" {
		return "", apperr.ErrEmptyCompletion
	}
	return cleaned, nil
}

// TestConnection sends a fixed short prompt and returns the model name
// together with the raw reply text.
func (c *Client) TestConnection(ctx context.Context) (model, reply string, err error) {
	reply, model, err = c.complete(ctx, testPrompt)
	if err != nil {
		return "", "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", "", apperr.ErrEmptyCompletion
	}
	return model, reply, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if m := c.settings.Get(settings.KeyModel); m != "" {
		return m
	}
	return DefaultModel
}

func (c *Client) complete(ctx context.Context, userMessage string) (reply, model string, err error) {
	apiKey, err := c.creds.GetKey()
	if err != nil {
		return "", "", err
	}
	if apiKey == "" {
		return "", "", apperr.ErrNoAPIKey
	}

	model = c.Model()
	profile := profileFor(model)

	reqBody := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPreamble},
			{Role: "user", Content: userMessage},
		},
	}
	if profile.useCompletionTokensField {
		reqBody.MaxCompletionTokens = defaultMaxTokens
	} else {
		reqBody.MaxTokens = defaultMaxTokens
	}
	if !profile.omitTemperature {
		temp := defaultTemperature
		reqBody.Temperature = &temp
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", fmt.Errorf("generation: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", "", fmt.Errorf("generation: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("generation: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("generation: read response: %w", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		// A proxy or gateway may answer with a non-JSON error page;
		// surface the status and body rather than a decode error.
		if resp.StatusCode != http.StatusOK {
			return "", "", fmt.Errorf("generation: provider status %d: %s", resp.StatusCode, string(body))
		}
		return "", "", fmt.Errorf("generation: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", "", fmt.Errorf("generation: provider error: %s", completion.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("generation: provider status %d: %s", resp.StatusCode, string(body))
	}
	if len(completion.Choices) == 0 {
		return "", "", apperr.ErrEmptyCompletion
	}
	if completion.Model != "" {
		model = completion.Model
	}
	return completion.Choices[0].Message.Content, model, nil
}

func buildUserMessage(prompt, existing string) string {
	if existing != "" {
		return "Modify the following existing Mermaid diagram.\n\n" +
			existing + "\n\nInstruction: " + prompt
	}
	return "Create a new Mermaid diagram from scratch.\n\nInstruction: " + prompt
}

// stripFences removes a fenced-code-block wrapper (``` or ```mermaid)
// and surrounding whitespace from a provider reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
