package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAIConfig configures the caption text client.
type OpenAIConfig struct {
	// required fields
	BaseURL string
	APIKey  string

	Model           string        // default: gpt-4o-mini
	MaxTokens       int           // default: 150
	Temperature     float32       // default: 0.7
	UpstreamTimeout time.Duration // per-request timeout (default: 30s)
	MaxRetries      int           // retry attempts (default: 2)
	BaseBackoff     time.Duration // initial backoff (default: 100ms)

	// Optional connection pool settings
	MaxIdleConns        int // default: 100
	MaxIdleConnsPerHost int // default: 100

	// Custom HTTP client (for testing or special configs)
	HTTPClient *http.Client
}

// Validate checks required fields only.
func (c *OpenAIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BaseURL is required")
	}
	if c.APIKey == "" {
		return errors.New("APIKey is required")
	}
	return nil
}

// WithDefaults returns a copy of the config with sane defaults applied.
func (c *OpenAIConfig) WithDefaults() OpenAIConfig {
	cfg := *c

	// Normalize BaseURL: trim trailing slashes so we can safely append paths.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 100
	}

	return cfg
}

// OpenAIClient generates captions, comparisons and summaries through an
// OpenAI-style chat completions endpoint.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClient creates a text generation client.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: defaultTransport(cfg),
		}
	}

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("openai"),
	}, nil
}

// defaultTransport creates a production-ready HTTP transport
// with connection pooling and reasonable timeouts.
func defaultTransport(cfg OpenAIConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Close releases resources held by the client.
func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

const bhaiStylePrompt = `You are a friendly Indian college student talking casually to a friend. Use this "bhai style" personality:

BHAI STYLE RULES:
- Sound like a friendly Indian college student
- Use Hinglish (mix of English + Hindi words)
- Light humor and casual tone
- Informal slang allowed but NO profanity
- Keep responses short and punchy (1-2 lines max)
- Use "bhai" naturally in conversation

EXAMPLES:
- "Bhai, yeh dish full mazedaar hai — calories thodi zyada, but worth it."
- "Scene simple hai bhai: rajma lelo, pet bhi bharega aur protein bhi milega."
- "Bhai, if gym ka plan hai toh B better — clean aur halka."

Always respond in this bhai style for the following request:
`

func (c *OpenAIClient) BhaiCaption(ctx context.Context, dish string, calories int) (string, error) {
	prompt := fmt.Sprintf(`%s
Generate a bhai-style caption for this dish:
Dish: %s
Calories: %d

Make it sound natural and friendly, mentioning the dish and calories in bhai style.`, bhaiStylePrompt, dish, calories)

	return c.complete(ctx, prompt)
}

func (c *OpenAIClient) FormalCaption(ctx context.Context, dish string, calories int) (string, error) {
	prompt := fmt.Sprintf(`Generate a professional, informative caption for this dish:

Dish: %s
Calories: %d

Write 1-2 sentences in formal English that describes the dish nutritionally and contextually. Be informative but concise.`, dish, calories)

	return c.complete(ctx, prompt)
}

func (c *OpenAIClient) ComparisonSuggestion(ctx context.Context, dishA, dishB string, caloriesA, caloriesB int) (string, error) {
	prompt := fmt.Sprintf(`%s
Compare these two dishes and give a bhai-style recommendation:
Dish A: %s (%d calories)
Dish B: %s (%d calories)

Give ONE line suggestion in bhai style about which is better and why.`, bhaiStylePrompt, dishA, caloriesA, dishB, caloriesB)

	return c.complete(ctx, prompt)
}

func (c *OpenAIClient) WeeklySummary(ctx context.Context, totalCalories int, dateRange string, avgPerDay int) (string, error) {
	prompt := fmt.Sprintf(`Generate a professional 3-4 sentence summary for this weekly nutrition data:

Total calories: %d
Date range: %s
Average per day: %d

Write a formal, informative summary about the eating patterns and nutritional balance. Be encouraging and constructive.`, totalCalories, dateRange, avgPerDay)

	return c.complete(ctx, prompt)
}

// Request shape we send upstream (OpenAI-style).
type providerChatRequest struct {
	Model       string                `json:"model"`
	Messages    []providerChatMessage `json:"messages"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Temperature float32               `json:"temperature,omitempty"`
}

type providerChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type providerChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message providerChatMessage `json:"message"`
	} `json:"choices"`
}

type providerErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// complete sends a single-message chat completion and returns the cleaned
// response text.
func (c *OpenAIClient) complete(parentCtx context.Context, prompt string) (string, error) {
	start := time.Now()

	var ctx context.Context
	var cancel context.CancelFunc
	if c.cfg.UpstreamTimeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, c.cfg.UpstreamTimeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}
	defer cancel()

	pReq := providerChatRequest{
		Model:       c.cfg.Model,
		Messages:    []providerChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	bodyBytes, err := json.Marshal(pReq)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"

	// doOnce builds a fresh *http.Request for each attempt
	doOnce := func(ctx context.Context, body []byte) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("openai: build HTTP request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(httpReq)
	}

	resp, err := c.doWithRetry(ctx, bodyBytes, doOnce)
	if err != nil {
		c.logger.Error("openai request failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		var perr providerErrorResponse
		if err := json.Unmarshal(body, &perr); err == nil && perr.Error.Message != "" {
			c.logger.Error("openai provider error",
				zap.Int("status", resp.StatusCode),
				zap.String("error_type", perr.Error.Type),
				zap.String("error_message", perr.Error.Message),
			)
			return "", fmt.Errorf("openai: upstream %d: %s (%s)",
				resp.StatusCode, perr.Error.Message, perr.Error.Type)
		}

		c.logger.Error("openai upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		return "", fmt.Errorf("openai: upstream %d: %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	var pResp providerChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return "", fmt.Errorf("openai: decode upstream response: %w", err)
	}

	if len(pResp.Choices) == 0 {
		return "", errors.New("openai: provider returned no choices")
	}

	text := strings.Trim(strings.TrimSpace(pResp.Choices[0].Message.Content), `"'`)
	if text == "" {
		return "", errors.New("openai: provider returned empty content")
	}

	c.logger.Info("openai request completed",
		zap.String("model", pResp.Model),
		zap.Duration("duration", time.Since(start)),
	)

	return text, nil
}

// truncate limits string length for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
