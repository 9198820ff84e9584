package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/chain-brief/pkg/config"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

// LLM completes a single prompt. Implementations honor ctx cancellation.
type LLM interface {
	Name() string
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

var errEmptyCompletion = errors.New("empty completion")

// NewLLM picks a provider from AI_PROVIDER, or from the first API key present.
// It returns a nil LLM when nothing is configured.
func NewLLM(ctx context.Context, cfg *config.Config) (LLM, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	if provider == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			provider = ProviderAnthropic
		case cfg.OpenAIAPIKey != "":
			provider = ProviderOpenAI
		case cfg.GeminiAPIKey != "":
			provider = ProviderGemini
		case cfg.OllamaURL != "":
			provider = ProviderOllama
		default:
			log.Warn().Msg("no AI provider configured, narratives use templates")
			return nil, nil
		}
	}

	var (
		llm LLM
		err error
	)
	switch provider {
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("AI_PROVIDER=anthropic but ANTHROPIC_API_KEY is empty")
		}
		llm = NewHTTPLLM(ProviderAnthropic, cfg.AnthropicAPIKey,
			modelOr(cfg.AIModel, "claude-sonnet-4-20250514"), "https://api.anthropic.com/v1/messages")
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("AI_PROVIDER=openai but OPENAI_API_KEY is empty")
		}
		llm = NewHTTPLLM(ProviderOpenAI, cfg.OpenAIAPIKey,
			modelOr(cfg.AIModel, "gpt-4o-mini"), "https://api.openai.com/v1/chat/completions")
	case ProviderOllama:
		if cfg.OllamaURL == "" {
			return nil, fmt.Errorf("AI_PROVIDER=ollama but OLLAMA_URL is empty")
		}
		llm = NewHTTPLLM(ProviderOllama, "",
			modelOr(cfg.AIModel, "llama3.1"), strings.TrimRight(cfg.OllamaURL, "/")+"/api/chat")
	case ProviderGemini:
		llm, err = NewGemini(ctx, cfg.GeminiAPIKey, modelOr(cfg.AIModel, "gemini-2.5-flash"))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", provider)
	}

	log.Info().Str("provider", provider).Msg("narrative LLM initialized")
	return llm, nil
}

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// HTTPLLM speaks the anthropic, openai and ollama chat APIs over plain HTTP.
type HTTPLLM struct {
	provider string
	apiKey   string
	model    string
	url      string
	client   *http.Client
}

func NewHTTPLLM(provider, apiKey, model, url string) *HTTPLLM {
	return &HTTPLLM{
		provider: provider,
		apiKey:   apiKey,
		model:    model,
		url:      url,
		client:   &http.Client{},
	}
}

func (h *HTTPLLM) Name() string { return h.provider }

func (h *HTTPLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []map[string]string{{"role": "user", "content": prompt}}
	reqBody := map[string]interface{}{
		"model":    h.model,
		"messages": messages,
	}
	headers := map[string]string{"Content-Type": "application/json"}

	switch h.provider {
	case ProviderAnthropic:
		reqBody["max_tokens"] = maxTokens
		headers["x-api-key"] = h.apiKey
		headers["anthropic-version"] = "2023-06-01"
	case ProviderOpenAI:
		reqBody["max_tokens"] = maxTokens
		reqBody["response_format"] = map[string]string{"type": "json_object"}
		headers["Authorization"] = "Bearer " + h.apiKey
	case ProviderOllama:
		reqBody["stream"] = false
		reqBody["format"] = "json"
		reqBody["options"] = map[string]int{"num_predict": maxTokens}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API error %d: %s", h.provider, resp.StatusCode, truncate(string(respBody), 200))
	}

	var text string
	switch h.provider {
	case ProviderAnthropic:
		var result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", err
		}
		if len(result.Content) > 0 {
			text = result.Content[0].Text
		}
	case ProviderOpenAI:
		var result struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", err
		}
		if len(result.Choices) > 0 {
			text = result.Choices[0].Message.Content
		}
	default:
		var result struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", err
		}
		text = result.Message.Content
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", h.provider, errEmptyCompletion)
	}
	return text, nil
}

// Gemini wraps the genai client for JSON completions.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini builds a client. An empty apiKey lets genai read GOOGLE_API_KEY / GEMINI_API_KEY.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			MaxOutputTokens:  int32(maxTokens),
		},
	)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", ProviderGemini, errEmptyCompletion)
	}
	return text, nil
}

// extractJSON strips markdown fences and surrounding prose from a completion.
func extractJSON(s string) []byte {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return []byte(s[start : end+1])
	}
	return []byte(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
