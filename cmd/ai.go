package cmd

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tryfit/stylist/internal/ai"
	"github.com/tryfit/stylist/internal/ai/gemini"
	"github.com/tryfit/stylist/internal/logger"
	"github.com/tryfit/stylist/internal/secrets"
)

// newGeminiClient builds the Gemini client from the ai section of the config.
func newGeminiClient(cfg *AIConfig, log *zap.Logger) (*gemini.Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("ai is not enabled in the configuration")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	keys, err := secrets.LoadList(secrets.Source{
		Name: "gemini api keys",
		File: cfg.Gemini.APIKeysFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-keys-file or GEMINI_API_KEYS_FILE)", err)
	}

	clientLogger := logger.WithFields(log,
		logger.CommonFields("gemini", cfg.Gemini.Model)...,
	)

	return gemini.NewClient(gemini.Config{
		Keys:        keys,
		Model:       cfg.Gemini.Model,
		ImageModel:  cfg.Gemini.ImageModel,
		MaxRetries:  cfg.Gemini.MaxRetries,
		BaseDelay:   time.Second,
		Temperature: float32(cfg.Gemini.Temperature),
	}, clientLogger)
}

// newRanker builds the reranker when the configuration allows it. A nil
// ranker simply means the recommendation flow uses fallback ordering.
func newRanker(cfg *AIConfig, log *zap.Logger) ai.Ranker {
	client, err := newGeminiClient(cfg, log)
	if err != nil {
		log.Warn("reranking unavailable", zap.Error(err))
		return nil
	}

	maxLogLength := 0
	if cfg.Gemini != nil {
		maxLogLength = cfg.Gemini.MaxLogLength
	}

	rankerLogger := logger.WithFields(log,
		logger.CommonFields("gemini", client.Model())...,
	)

	return gemini.NewRanker(client, rankerLogger, maxLogLength)
}
