package llm

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/config"
	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// NewModelClient resolves the backend once at startup: mock mode, then an
// OpenAI-compatible backend if a usable key exists, then native Gemini.
// With no usable credential it fails with a ConfigurationError and the
// workflow never starts.
func NewModelClient(cfg *config.Config) (ModelClient, error) {
	if cfg.Mode == config.ModeMock {
		log.Info().Msg("LEXCOUNCIL_MODE=MOCK detected, using mock model client")
		return NewMockClient(), nil
	}

	openaiKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	if isPlaceholderKey(openaiKey) {
		openaiKey = ""
	}

	if openaiKey != "" {
		log.Info().Str("model", cfg.OpenAIModel).Msg("using OpenAI-compatible model client")
		return NewOpenAIClient(cfg.OpenAIBaseURL, openaiKey, cfg.OpenAIModel, cfg.ModelTimeout), nil
	}

	geminiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if isPlaceholderKey(geminiKey) {
		geminiKey = ""
	}

	if geminiKey != "" {
		log.Info().Str("model", cfg.GeminiModel).Msg("using native Gemini model client")
		return NewGeminiClient("", geminiKey, cfg.GeminiModel, cfg.ModelTimeout), nil
	}

	return nil, &domain.ConfigurationError{Message: "no usable API key found (LEXCOUNCIL_OPENAI_API_KEY or LEXCOUNCIL_GEMINI_API_KEY)"}
}

// isPlaceholderKey catches keys copied verbatim from an env template,
// in either the OpenAI "sk-..." or the "your-api-key-here" shape.
func isPlaceholderKey(key string) bool {
	return key == "" || strings.HasPrefix(key, "sk-...") || strings.HasPrefix(strings.ToLower(key), "your-")
}
