package runtime

import (
	"os"

	"github.com/wisbric/ai-shell/internal/config"
	"github.com/wisbric/ai-shell/pkg/llm"
)

// wireProviders registers every LLM provider named in cfg.ApiKeyEnv and
// routes each logical function to it. A function with no configured
// provider simply has no route; Manager falls back to degraded behavior
// for it (spec.md §4.5 "must degrade gracefully, never block the shell").
func wireProviders(registry *llm.Registry, cfg *config.Config) {
	for function, envVar := range cfg.ApiKeyEnv {
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			continue
		}

		var provider llm.Provider
		switch {
		case function == "anonymise":
			// Anonymise/Deanonymise never call out to a provider; no
			// binding needed.
			continue
		case envVar == "ANTHROPIC_API_KEY":
			provider = llm.NewAnthropicProvider(apiKey, "claude-3-5-sonnet-latest")
		default:
			// Any other *_API_KEY names a self-hosted or OpenAI-compatible
			// endpoint reachable over the generic chat-completions contract.
			baseURL := os.Getenv(envVar + "_BASE_URL")
			if baseURL == "" {
				continue
			}
			provider = llm.NewHTTPProvider(envVar, baseURL, apiKey, "default", "default-embed")
		}

		registry.Register(provider)
		_ = registry.Route(function, provider.Name())
	}
}
