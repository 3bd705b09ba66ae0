package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// AnthropicProvider is the Claude-style public provider (spec.md §4.5).
type AnthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicProvider builds a provider bound to a single model, reading
// credentials from the environment the way anthropic-sdk-go's default
// client option does.
func NewAnthropicProvider(apiKey string, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) AnalyzeIntent(ctx context.Context, text string, c Context) (IntentResult, error) {
	prompt := intentPrompt(text, c)
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 256,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return IntentResult{}, apperr.Wrap(apperr.KindProviderError, "llm.anthropic.analyze_intent", "request failed", err)
	}

	text = concatText(resp)
	return parseIntentJSON(text)
}

func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindProviderError, "llm.anthropic.complete", "request failed", err)
	}
	return concatText(resp), nil
}

// Embed is unsupported by the Claude-style API; the manager routes the
// embed function to a provider that implements it.
func (p *AnthropicProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, apperr.New(apperr.KindProviderError, "llm.anthropic.embed", "anthropic provider does not support embeddings")
}

func concatText(resp *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func intentPrompt(text string, c Context) string {
	return "Classify the user's intent as one of file_operation, database_query, vault_access, navigation, other. " +
		"Respond as JSON {\"primary_intent\":\"...\",\"confidence\":0.0}. cwd=" + c.CWD +
		" module=" + c.CurrentModule + " input=" + text
}

func parseIntentJSON(s string) (IntentResult, error) {
	var raw struct {
		PrimaryIntent string  `json:"primary_intent"`
		Confidence    float64 `json:"confidence"`
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return RuleBasedIntent(s), nil
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return RuleBasedIntent(s), nil
	}
	conf := raw.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	intent := Intent(raw.PrimaryIntent)
	switch intent {
	case IntentFileOperation, IntentDatabaseQuery, IntentVaultAccess, IntentNavigation, IntentOther:
	default:
		intent = IntentOther
	}
	return IntentResult{PrimaryIntent: intent, Confidence: conf}, nil
}
