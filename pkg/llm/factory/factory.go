package factory

import (
	"bant-agent-be/pkg/llm"
	"bant-agent-be/pkg/llm/gigachat"
	"bant-agent-be/pkg/llm/ollama"
	"fmt"
)

// GigaChatSettings carries the credentials the gigachat provider needs.
type GigaChatSettings struct {
	AuthKey   string
	Scope     string
	AuthURL   string
	APIURL    string
	VerifySSL bool
}

func NewLLMProvider(providerType, modelName, baseURL string, giga GigaChatSettings) (llm.LLMProvider, error) {
	switch providerType {
	case "gigachat":
		return gigachat.NewGigaChatProvider(gigachat.Config{
			AuthKey:   giga.AuthKey,
			Scope:     giga.Scope,
			Model:     modelName,
			AuthURL:   giga.AuthURL,
			APIURL:    giga.APIURL,
			VerifySSL: giga.VerifySSL,
		})
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
