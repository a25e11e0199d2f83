package court

import (
	"context"
	"fmt"

	"github.com/kadirpekel/tribunal/pkg/config"
	"github.com/kadirpekel/tribunal/pkg/model"
	"github.com/kadirpekel/tribunal/pkg/model/gemini"
)

// NewModels builds the models for every role from cfg. Gemini models are
// wrapped with the configured retry policy and shared by all roles. The
// scripted provider replays a canned session for topic, writing its
// verdict under outputDir.
func NewModels(ctx context.Context, cfg config.ModelConfig, topic, outputDir string) (Models, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		llm, err := gemini.New(ctx, gemini.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Name,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return Models{}, err
		}
		return Shared(model.WithRetry(llm, model.RetryConfig{
			Attempts:     cfg.Retry.Attempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   2,
		})), nil
	case config.ProviderScripted:
		return DryRun(topic, outputDir), nil
	default:
		return Models{}, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
