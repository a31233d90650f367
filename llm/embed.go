package llm

import (
	"context"
	"fmt"

	"github.com/smallnest/agentpatterns/config"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewEmbedder creates the embedder used for semantic search over long-term memory.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	var client embeddings.EmbedderClient

	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderOpenAINative:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		c, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create embedding client: %w", err)
		}
		client = c
	case config.ProviderGoogleAI:
		c, err := googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("create embedding client: %w", err)
		}
		client = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	return embeddings.NewEmbedder(client)
}
