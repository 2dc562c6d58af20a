package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/config"
)

// NewClient builds the oracle client described by the agent configuration: one
// provider client per tier behind an LLMRouter, throttled when
// requests_per_minute is positive.
func NewClient(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}

	fastClient, err := newProviderClient(ctx, cfg.LLM.Models[cfg.LLM.DefaultFastModel], logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fast tier model '%s': %w", cfg.LLM.DefaultFastModel, err)
	}

	var powerfulClient schemas.LLMClient
	if cfg.LLM.DefaultPowerfulModel == cfg.LLM.DefaultFastModel {
		powerfulClient = fastClient
	} else {
		powerfulClient, err = newProviderClient(ctx, cfg.LLM.Models[cfg.LLM.DefaultPowerfulModel], logger)
		if err != nil {
			_ = fastClient.Close()
			return nil, fmt.Errorf("failed to initialize powerful tier model '%s': %w", cfg.LLM.DefaultPowerfulModel, err)
		}
	}

	router, err := NewLLMRouter(logger, fastClient, powerfulClient)
	if err != nil {
		return nil, err
	}

	if cfg.LLM.RequestsPerMinute > 0 {
		return NewRateLimited(router, cfg.LLM.RequestsPerMinute, logger), nil
	}
	return router, nil
}

func newProviderClient(ctx context.Context, modelCfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch modelCfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, modelCfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", modelCfg.Provider, config.ProviderGemini)
	}
}
