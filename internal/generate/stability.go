package generate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StabilityConfig configures the image generation client.
type StabilityConfig struct {
	APIKey    string
	Engine    string        // default: stable-diffusion-2
	BaseURL   string        // default: https://api.stability.ai
	Timeout   time.Duration // default: 30s
	ImagesDir string        // default: data/images
	URLPrefix string        // default: /data/images
}

func (c *StabilityConfig) withDefaults() StabilityConfig {
	cfg := *c
	if cfg.Engine == "" {
		cfg.Engine = "stable-diffusion-2"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stability.ai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ImagesDir == "" {
		cfg.ImagesDir = filepath.Join("data", "images")
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/data/images"
	}
	return cfg
}

// StabilityClient generates dish images through the Stability text-to-image
// API and stores them on local disk, returning the servable URL path.
type StabilityClient struct {
	cfg    StabilityConfig
	client *resty.Client
	logger *zap.Logger
}

// NewStabilityClient creates an image generation client.
func NewStabilityClient(cfg StabilityConfig, logger *zap.Logger) (*StabilityClient, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, errors.New("stability: APIKey is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("stability: create images dir: %w", err)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &StabilityClient{
		cfg:    cfg,
		client: client,
		logger: logger.Named("stability"),
	}, nil
}

type stabilityTextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	TextPrompts []stabilityTextPrompt `json:"text_prompts"`
	CfgScale    int                   `json:"cfg_scale"`
	Height      int                   `json:"height"`
	Width       int                   `json:"width"`
	Samples     int                   `json:"samples"`
	Steps       int                   `json:"steps"`
	StylePreset string                `json:"style_preset"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

// DishImage generates an image for the dish, saves it under the images
// directory, and returns its URL path.
func (c *StabilityClient) DishImage(ctx context.Context, dish string) (string, error) {
	start := time.Now()

	var out stabilityResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(stabilityRequest{
			TextPrompts: []stabilityTextPrompt{{Text: imagePrompt(dish), Weight: 1.0}},
			CfgScale:    7,
			Height:      512,
			Width:       512,
			Samples:     1,
			Steps:       30,
			StylePreset: "photographic",
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/v1/generation/%s/text-to-image", c.cfg.Engine))
	if err != nil {
		return "", fmt.Errorf("stability: request failed: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("stability upstream error",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 200)),
		)
		return "", fmt.Errorf("stability: upstream %d", resp.StatusCode())
	}
	if len(out.Artifacts) == 0 {
		return "", errors.New("stability: no image artifacts in response")
	}

	imageData, err := base64.StdEncoding.DecodeString(out.Artifacts[0].Base64)
	if err != nil {
		return "", fmt.Errorf("stability: decode artifact: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.png", sanitizeFilename(dish), uuid.NewString())
	path := filepath.Join(c.cfg.ImagesDir, filename)
	if err := os.WriteFile(path, imageData, 0o644); err != nil {
		return "", fmt.Errorf("stability: save image: %w", err)
	}

	url := c.cfg.URLPrefix + "/" + filename
	c.logger.Info("dish image generated",
		zap.String("dish", dish),
		zap.String("url", url),
		zap.Duration("duration", time.Since(start)),
	)
	return url, nil
}

func imagePrompt(dish string) string {
	return fmt.Sprintf("A beautifully plated %s, professional food photography, "+
		"appetizing presentation, natural lighting, high quality, detailed, "+
		"traditional Indian cuisine, colorful, fresh ingredients, "+
		"restaurant quality plating, top view, clean background", dish)
}

// sanitizeFilename keeps filenames safe for the filesystem and URLs.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > 50 {
		s = s[:50]
	}
	if s == "" {
		s = "dish"
	}
	return s
}
