package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Secrets mirrors a Streamlit-style secrets.toml. Only provider keys are read.
type Secrets struct {
	OpenAIAPIKey    string `toml:"OPENAI_API_KEY"`
	AnthropicAPIKey string `toml:"ANTHROPIC_API_KEY"`
	ArkAPIKey       string `toml:"ARK_API_KEY"`
	DashScopeAPIKey string `toml:"DASHSCOPE_API_KEY"`
}

// LoadSecrets decodes the file at path. A missing file yields empty secrets.
func LoadSecrets(path string) (*Secrets, error) {
	var s Secrets
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Secrets{}, nil
		}
		return nil, fmt.Errorf("read secrets %s: %w", path, err)
	}
	return &s, nil
}

func (s *Secrets) apply(c *Config) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.OpenAI.APIKey, s.OpenAIAPIKey)
	fill(&c.Anthropic.APIKey, s.AnthropicAPIKey)
	fill(&c.Doubao.APIKey, s.ArkAPIKey)
	fill(&c.Qwen.APIKey, s.DashScopeAPIKey)
}
