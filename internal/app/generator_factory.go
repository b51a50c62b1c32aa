package app

import (
	"fmt"

	"github.com/personifai/personifai/internal/config"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/respond/generator"
)

// GeneratorFactory creates response generators from application settings
type GeneratorFactory struct {
	cfg    *config.Settings
	logger *Logger.Logger
}

// NewGeneratorFactory creates a new generator factory
func NewGeneratorFactory(cfg *config.Settings, logger *Logger.Logger) *GeneratorFactory {
	return &GeneratorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGenerator builds the configured provider
func (f *GeneratorFactory) CreateGenerator() (generator.Generator, error) {
	switch f.cfg.Generator.Provider {
	case "openai", "":
		if f.cfg.AssistantKeys.OpenAiApiKey == "" {
			return nil, fmt.Errorf("openai generator requires an api key")
		}
		f.logger.Infof("OpenAI generator created, model: %s", f.cfg.Generator.Model)
		return generator.NewOpenAI(f.cfg.AssistantKeys.OpenAiApiKey, f.cfg.Generator.Model, f.logger), nil
	case "ollama":
		servers := f.cfg.Generator.OllamaServers
		if len(servers) == 0 {
			servers = []string{"http://localhost:11434"}
		}
		model := f.cfg.Generator.Model
		if model == "" {
			model = "llama3.1:8b-instruct"
		}
		f.logger.Infof("Ollama generator created, servers: %v, model: %s", servers, model)
		return generator.NewOllama(servers, model, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", f.cfg.Generator.Provider)
	}
}
