// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/gemini"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/hashed"
	ollamaembed "github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/openai"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/ratelimit"
	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/embedding/sentence"
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by settings,
// throttled when RequestsPerSecond is set.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.IsValid() {
		return nil, domain.NewConfigurationError("embedding.provider",
			fmt.Sprintf("unsupported embedding provider %q", settings.Provider))
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key, set $%s",
			domain.ErrEmbeddingUnavailable, settings.Provider, settings.APIKeyEnvOrDefault())
	}

	svc, err := createProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	logger.Debug("Embedding provider: %s, model %s, %d dimensions",
		settings.Provider, svc.ModelName(), svc.Dimensions())

	return ratelimit.Wrap(svc, settings.RequestsPerSecond), nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s service unreachable (%w). Run 'studymate config show' to check settings",
			domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}

	return svc, nil
}

func createProvider(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	model := settings.ModelOrDefault()
	dims := settings.DimensionsOrDefault()

	switch settings.Provider {
	case domain.AIProviderHashed:
		return hashed.NewEmbeddingService(dims), nil

	case domain.AIProviderSentence:
		return sentence.NewEmbeddingService(sentence.Config{
			BaseURL:    settings.BaseURL,
			Model:      model,
			Timeout:    timeout,
			Dimensions: dims,
		}), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:     settings.BaseURL,
			Model:       model,
			Timeout:     timeout,
			Dimensions:  dims,
			Concurrency: settings.Concurrency,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      model,
			Timeout:    timeout,
			Dimensions: dims,
		})

	case domain.AIProviderGemini:
		return gemini.NewEmbeddingService(context.Background(), gemini.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      model,
			Timeout:    timeout,
			Dimensions: dims,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}
