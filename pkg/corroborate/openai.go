package corroborate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config configures an OpenAI-compatible chat completions provider.
type Config struct {
	// BaseURL is the API root without the /v1 suffix.
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// MaxRetries applies to unparseable responses and transient HTTP errors.
	MaxRetries int
	// RequestsPerSecond caps outgoing calls; zero means unlimited.
	RequestsPerSecond float64
	// MaxTextChars truncates the text sent to the model.
	MaxTextChars int
}

// DefaultConfig returns settings for the public OpenAI endpoint.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.openai.com",
		Model:             "gpt-4o-mini",
		Timeout:           30 * time.Second,
		MaxRetries:        2,
		RequestsPerSecond: 1,
		MaxTextChars:      5000,
	}
}

// OpenAIProvider implements Provider over the OpenAI-compatible
// /v1/chat/completions API. vLLM, Ollama, and most hosted gateways speak it.
type OpenAIProvider struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	name       string
}

// NewOpenAIProvider creates a provider. Empty fields fall back to DefaultConfig.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = def.MaxTextChars
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		name:       "openai-" + cfg.Model,
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.cfg.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

const systemPrompt = `You check whether a brand or website is mentioned in a piece of text.
Answer with a single JSON object and nothing else:
{"mentioned": true|false, "context": "<short quote or empty>", "score": <0-100 visibility>}`

func judgePrompt(text, target string) string {
	return fmt.Sprintf("Brand or website: %s\n\nText:\n%s", target, text)
}

// Judge asks the model about text, retrying unparseable answers with a
// stricter instruction.
func (p *OpenAIProvider) Judge(ctx context.Context, text, target string) (*Judgment, error) {
	if r := []rune(text); len(r) > p.cfg.MaxTextChars {
		text = string(r[:p.cfg.MaxTextChars])
	}
	prompt := judgePrompt(text, target)

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		content, err := p.complete(ctx, prompt)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil || isCode(err, ErrTimeout) || isCode(err, ErrUnauthorized) {
				return nil, err
			}
			continue
		}

		j, err := ParseJudgment(content)
		if err != nil {
			lastErr = &ProviderError{Code: ErrParseFailure, Message: err.Error(), Details: content}
			prompt = judgePrompt(text, target) + "\n\nIMPORTANT: Respond with the JSON object only. No markdown, no explanations."
			continue
		}
		return j, nil
	}
	return nil, lastErr
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Code: ErrTimeout, Message: fmt.Sprintf("waiting for rate limiter: %v", err)}
	}

	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return "", &ProviderError{Code: ErrParseFailure, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := p.cfg.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Code: ErrUnavailable, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &ProviderError{Code: ErrTimeout, Message: "request timeout"}
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", &ProviderError{Code: ErrTimeout, Message: "request timeout"}
		}
		return "", &ProviderError{Code: ErrUnavailable, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ProviderError{Code: ErrUnavailable, Message: fmt.Sprintf("read response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &ProviderError{Code: ErrRateLimited, Message: fmt.Sprintf("HTTP 429: %s", truncate(string(respBody), 200))}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &ProviderError{Code: ErrUnauthorized, Message: fmt.Sprintf("HTTP %d: check the API key", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", &ProviderError{Code: ErrUnavailable, Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 200))}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &ProviderError{Code: ErrParseFailure, Message: fmt.Sprintf("parse response: %v", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &ProviderError{Code: ErrParseFailure, Message: "no choices in response"}
	}
	return chatResp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
