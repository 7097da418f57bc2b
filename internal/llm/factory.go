package llm

import (
	"fmt"
	"strings"

	"chat-simulator/internal/config"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenAIBaseURL    string
	YandexOAuthToken string
	YandexFolderID   string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
}

// CreateClient builds a client for the given provider tag. The API key is the
// caller's credential, passed per request, not a server-wide secret.
func (f *Factory) CreateClient(provider config.LLMProvider, apiKey, model string, params GenParams) (Client, error) {
	switch config.LLMProvider(strings.ToLower(string(provider))) {
	case config.ProviderOpenAI:
		return NewOpenAI(apiKey, f.OpenAIBaseURL, model, params), nil
	case config.ProviderAnthropic:
		return NewAnthropic(apiKey, params), nil
	case config.ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	case config.ProviderGoogle:
		return nil, fmt.Errorf("google provider is not supported yet")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// InferProvider guesses the provider from the shape of an API key. This is a
// best-effort default for when the caller supplies no explicit tag; callers
// that know the provider should say so.
func InferProvider(apiKey string) config.LLMProvider {
	switch {
	case strings.HasPrefix(apiKey, "sk-ant-"):
		return config.ProviderAnthropic
	case strings.HasPrefix(apiKey, "AIza"):
		return config.ProviderGoogle
	case strings.HasPrefix(apiKey, "sk-"):
		return config.ProviderOpenAI
	case len(apiKey) > 50:
		return config.ProviderGoogle
	default:
		return config.ProviderOpenAI
	}
}
