// Package config provides configuration for the legal research orchestrator.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lexcouncil/lexcouncil/internal/domain"
)

// Mode selects how the model backend is resolved at startup.
const (
	ModeMock = "MOCK"
)

// Config holds the orchestrator configuration. It is built once by Load and
// passed to the components that need it.
type Config struct {
	// Server settings
	HTTPPort int `mapstructure:"http_port"`

	// Database
	DatabaseURL string `mapstructure:"database_url"`

	// Model backend
	Mode          string `mapstructure:"mode"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OpenAIModel   string `mapstructure:"openai_model"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`

	// Retrieval backend
	RagFlowBaseURL      string `mapstructure:"ragflow_base_url"`
	RagFlowAPIKey       string `mapstructure:"ragflow_api_key"`
	RagFlowKnowledgeIDs string `mapstructure:"ragflow_knowledge_ids"`

	// Timeouts
	ModelTimeout time.Duration `mapstructure:"model_timeout"`
	ToolTimeout  time.Duration `mapstructure:"tool_timeout"`

	// Conversation bounds, counted in messages appended after the seed task.
	ResearchMaxMessages  int `mapstructure:"research_max_messages"`
	SynthesisMaxMessages int `mapstructure:"synthesis_max_messages"`

	// EnableWebVerify adds the web verification agent to the research team.
	EnableWebVerify bool `mapstructure:"enable_web_verify"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from the environment (LEXCOUNCIL_ prefix) and an
// optional lexcouncil.yaml in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEXCOUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", 8080)
	v.SetDefault("database_url", "file:lexcouncil.db?cache=shared&mode=rwc")
	v.SetDefault("mode", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("gemini_model", "gemini-2.0-flash-exp")
	v.SetDefault("ragflow_base_url", "http://localhost:9380")
	v.SetDefault("model_timeout", "120s")
	v.SetDefault("tool_timeout", "30s")
	v.SetDefault("research_max_messages", 11)
	v.SetDefault("synthesis_max_messages", 1)
	v.SetDefault("enable_web_verify", false)
	v.SetDefault("log_level", "info")

	// Environment variables alone are enough; a config file is optional.
	v.SetConfigName("lexcouncil")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &domain.ConfigurationError{Message: "reading config file: " + err.Error()}
		}
	}

	// Explicit bindings so AutomaticEnv sees keys that were never defaulted.
	for _, key := range []string{"openai_api_key", "openai_base_url", "gemini_api_key", "ragflow_api_key", "ragflow_knowledge_ids"} {
		if err := v.BindEnv(key); err != nil {
			return nil, &domain.ConfigurationError{Message: "binding env: " + err.Error()}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &domain.ConfigurationError{Message: "unmarshaling config: " + err.Error()}
	}
	return cfg, nil
}

// KnowledgeIDs splits the comma-separated knowledge base ID list.
func (c *Config) KnowledgeIDs() []string {
	if strings.TrimSpace(c.RagFlowKnowledgeIDs) == "" {
		return nil
	}
	parts := strings.Split(c.RagFlowKnowledgeIDs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
