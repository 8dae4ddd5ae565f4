package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Model       ModelConfig     `mapstructure:"model"`
	OpenAI      OpenAIConfig    `mapstructure:"openai"`
	Doubao      DoubaoConfig    `mapstructure:"doubao"`
	Qwen        QwenConfig      `mapstructure:"qwen"`
	Anthropic   AnthropicConfig `mapstructure:"anthropic"`
	Retrieval   RetrievalConfig `mapstructure:"retrieval"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
	Document    DocumentConfig  `mapstructure:"document"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Log         LogConfig       `mapstructure:"log"`
	Session     SessionConfig   `mapstructure:"session"`
	Storage     StorageConfig   `mapstructure:"storage"`
	SecretsFile string          `mapstructure:"secrets_file"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// ModelConfig selects the provider used for chat and summaries.
type ModelConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	SummaryModel string `mapstructure:"summary_model"`
}

type DoubaoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type QwenConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float32 `mapstructure:"temperature"`
	TopP         float32 `mapstructure:"top_p"`
	DebugRequest bool    `mapstructure:"debug_request"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// RetrievalConfig binds the file_search tool to a fixed vector store. It always
// goes through the OpenAI Responses API and reuses the OpenAI credentials.
type RetrievalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	VectorStoreID string `mapstructure:"vector_store_id"`
	Model         string `mapstructure:"model"`
}

type AssistantConfig struct {
	SystemPrompt  string `mapstructure:"system_prompt"`
	SummaryPrompt string `mapstructure:"summary_prompt"`
}

// DocumentConfig holds the character budgets applied to extracted PDF text.
type DocumentConfig struct {
	PreviewLimit   int   `mapstructure:"preview_limit"`
	ContextLimit   int   `mapstructure:"context_limit"`
	SummaryLimit   int   `mapstructure:"summary_limit"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CookieName      string        `mapstructure:"cookie_name"`
}

type StorageConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

const (
	ProviderOpenAI    = "openai"
	ProviderDoubao    = "doubao"
	ProviderQwen      = "qwen"
	ProviderAnthropic = "anthropic"
)

const DefaultSystemPrompt = "You are Lawgic, an AI-powered legal chatbot that provides clear, accessible answers " +
	"to U.S. legal questions in areas like housing, employment, immigration, and legal documentation."

const DefaultSummaryPrompt = "Summarise legal documents in plain-language bullet points."

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("model.provider", ProviderOpenAI)
	v.SetDefault("model.timeout", 2*time.Minute)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "o4-mini")
	v.SetDefault("openai.summary_model", "gpt-4.1-mini")

	v.SetDefault("doubao.api_key", "")
	v.SetDefault("doubao.base_url", "")
	v.SetDefault("doubao.model", "")

	v.SetDefault("qwen.api_key", "")
	v.SetDefault("qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("qwen.model", "qwen-plus")
	v.SetDefault("qwen.max_tokens", 4096)
	v.SetDefault("qwen.temperature", 0.7)
	v.SetDefault("qwen.top_p", 0.9)
	v.SetDefault("qwen.debug_request", false)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)

	v.SetDefault("retrieval.enabled", false)
	v.SetDefault("retrieval.vector_store_id", "")
	v.SetDefault("retrieval.model", "o4-mini")

	v.SetDefault("assistant.system_prompt", DefaultSystemPrompt)
	v.SetDefault("assistant.summary_prompt", DefaultSummaryPrompt)

	v.SetDefault("document.preview_limit", 1500)
	v.SetDefault("document.context_limit", 3000)
	v.SetDefault("document.summary_limit", 15000)
	v.SetDefault("document.max_upload_bytes", 10<<20)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)
	v.SetDefault("session.cookie_name", "lawgic_session")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.dsn", "./data/lawgic.db")

	v.SetDefault("secrets_file", ".streamlit/secrets.toml")
}

// Load reads the YAML file at configPath. An empty path runs on defaults and
// environment only. Environment variables use the LAWGIC_ prefix with dots
// replaced by underscores, e.g. LAWGIC_MODEL_PROVIDER.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LAWGIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := c.resolveAPIKeys(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg = c
	return c, nil
}

// resolveAPIKeys fills empty keys from well-known environment variables and
// then from the secrets file. The config file always wins.
func (c *Config) resolveAPIKeys() error {
	fromEnv := func(dst *string, names ...string) {
		for _, name := range names {
			if *dst != "" {
				return
			}
			*dst = os.Getenv(name)
		}
	}

	fromEnv(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fromEnv(&c.Doubao.APIKey, "DOUBAO_API_KEY", "ARK_API_KEY")
	fromEnv(&c.Qwen.APIKey, "DASHSCOPE_API_KEY")
	fromEnv(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")

	if c.SecretsFile == "" {
		return nil
	}

	secrets, err := LoadSecrets(c.SecretsFile)
	if err != nil {
		return err
	}
	secrets.apply(c)

	return nil
}

func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderDoubao, ProviderQwen, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported model provider: %q", c.Model.Provider)
	}

	if c.Retrieval.Enabled && c.Retrieval.VectorStoreID == "" {
		return fmt.Errorf("retrieval enabled without retrieval.vector_store_id")
	}

	if c.Document.PreviewLimit <= 0 || c.Document.ContextLimit <= 0 || c.Document.SummaryLimit <= 0 {
		return fmt.Errorf("document limits must be positive")
	}

	switch c.Storage.Type {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}

	return nil
}

// ProviderAPIKey returns the credential of the configured chat provider.
func (c *Config) ProviderAPIKey() string {
	switch c.Model.Provider {
	case ProviderDoubao:
		return c.Doubao.APIKey
	case ProviderQwen:
		return c.Qwen.APIKey
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	default:
		return c.OpenAI.APIKey
	}
}

func Get() *Config {
	return cfg
}
