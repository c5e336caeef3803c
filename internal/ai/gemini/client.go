package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/tryfit/stylist/internal/retry"
)

const (
	defaultModel      = "gemini-2.5-pro"
	defaultImageModel = "gemini-2.5-flash-image-preview"
)

// Config describes how the Gemini client reaches the API.
type Config struct {
	// Keys is the ordered credential pool. At least one key is required.
	Keys []string
	// Model serves text generation (reranking). Empty selects the default.
	Model string
	// ImageModel serves image generation (virtual try-on).
	ImageModel string
	// MaxRetries bounds attempts per key before rotating to the next one.
	MaxRetries int
	// BaseDelay is the backoff time unit between retries on the same key.
	BaseDelay time.Duration
	// Temperature is passed to every generation call.
	Temperature float32
	// MaxOutputTokens caps text replies when positive.
	MaxOutputTokens int32
}

// Client executes Gemini calls through the key-rotating retry policy. A fresh
// genai client is constructed per attempt so each credential of the pool gets
// its own session.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// NewClient validates the configuration and returns a ready client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	keys := make([]string, 0, len(cfg.Keys))
	for _, key := range cfg.Keys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, retry.ErrNoCredentials
	}
	cfg.Keys = keys

	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ImageModel = strings.TrimSpace(cfg.ImageModel); cfg.ImageModel == "" {
		cfg.ImageModel = defaultImageModel
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{cfg: cfg, logger: logger}, nil
}

// Model returns the configured text model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// ImageModel returns the configured image model name.
func (c *Client) ImageModel() string {
	if c == nil {
		return ""
	}
	return c.cfg.ImageModel
}

func (c *Client) policy() retry.Policy {
	return retry.Policy{
		Keys:             c.cfg.Keys,
		MaxRetriesPerKey: c.cfg.MaxRetries,
		BaseDelay:        c.cfg.BaseDelay,
		Logger:           c.logger,
	}
}

// GenerateText sends the prompt to the text model and returns the combined
// textual reply. The whole call, including client construction, runs inside
// the key-rotation loop.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	return retry.Invoke(ctx, c.policy(), func(ctx context.Context, key string) (string, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return "", fmt.Errorf("create genai client: %w", err)
		}

		cfg := &genai.GenerateContentConfig{
			Temperature: genai.Ptr(c.cfg.Temperature),
		}
		if c.cfg.MaxOutputTokens > 0 {
			cfg.MaxOutputTokens = c.cfg.MaxOutputTokens
		}

		resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), cfg)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		output := collectText(resp)
		if output == "" {
			return "", errors.New("gemini api returned empty response")
		}

		return output, nil
	})
}

// GenerateImage sends the assembled parts to the image model and returns the
// first inline image of the reply. A nil blob with a nil error means the model
// answered without an image.
func (c *Client) GenerateImage(ctx context.Context, parts []*genai.Part) (*genai.Blob, error) {
	if len(parts) == 0 {
		return nil, errors.New("at least one content part is required")
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts,
	}}

	cfg := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(c.cfg.Temperature),
		ResponseModalities: []string{"IMAGE"},
	}

	return retry.Invoke(ctx, c.policy(), func(ctx context.Context, key string) (*genai.Blob, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}

		resp, err := client.Models.GenerateContent(ctx, c.cfg.ImageModel, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}

		return extractImage(resp), nil
	})
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func extractImage(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			if len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}

	return nil
}
