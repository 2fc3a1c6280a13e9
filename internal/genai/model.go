package genai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider 文本模型提供方
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// TextModel 文本生成能力接口
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelConfig 文本模型配置
type ModelConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // ollama 服务地址或 openai 兼容网关
}

// Model wraps a langchaingo LLM for text generation.
// Model 基于 langchaingo 的文本生成模型封装
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates an LLM model based on configuration.
func NewModel(ctx context.Context, cfg ModelConfig) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case ProviderGoogleAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("google ai api key required")
		}
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai model: %w", err)
		}

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai api key required")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic api key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case ProviderOllama:
		opts := []ollama.Option{
			ollama.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.Model,
	}, nil
}

// Generate generates text based on a prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// ModelName returns the LLM model name.
func (m *Model) ModelName() string {
	return m.modelName
}
