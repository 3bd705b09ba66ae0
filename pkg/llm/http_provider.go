package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wisbric/ai-shell/internal/apperr"
)

// HTTPProvider speaks a minimal OpenAI-style chat-completion contract over
// HTTP. It backs the self-hosted endpoint, the generic chat-completion
// public provider, and the cheaper-Chinese-model public provider (spec.md
// §4.5): all three expose the same request/response shape, differing only
// in base URL, auth header, and model name.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	embedModel string
	httpClient *http.Client
}

// NewHTTPProvider builds a provider for any endpoint speaking the
// chat-completions contract (self-hosted, OpenAI-style, or a
// cheaper-Chinese-model API).
func NewHTTPProvider(name, baseURL, apiKey, model, embedModel string) *HTTPProvider {
	return &HTTPProvider{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *HTTPProvider) chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    p.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindProviderError, "llm.http.chat", "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.KindProviderError, "llm.http.chat", "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindProviderError, "llm.http.chat", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.KindProviderError, "llm.http.chat", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.KindProviderError, "llm.http.chat", "decoding response", err)
	}
	if len(out.Choices) == 0 {
		return "", apperr.New(apperr.KindProviderError, "llm.http.chat", "empty choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

func (p *HTTPProvider) AnalyzeIntent(ctx context.Context, text string, c Context) (IntentResult, error) {
	reply, err := p.chat(ctx, intentPrompt(text, c))
	if err != nil {
		return IntentResult{}, err
	}
	return parseIntentJSON(reply)
}

func (p *HTTPProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.chat(ctx, prompt)
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: p.embedModel, Input: text})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "llm.http.embed", "encoding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "llm.http.embed", "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "llm.http.embed", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindProviderError, "llm.http.embed", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "llm.http.embed", "decoding response", err)
	}
	if len(out.Data) == 0 {
		return nil, apperr.New(apperr.KindProviderError, "llm.http.embed", "empty data in response")
	}
	return out.Data[0].Embedding, nil
}
