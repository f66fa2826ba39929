package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// OpenAI-compatible /v1/chat/completions. OPENAI_BASE_URL allows pointing
// at any compatible server.
type openAIChat struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

func newOpenAIChatFromEnv() Extractor {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if base == "" {
		if apiKey == "" {
			return nil
		}
		base = "https://api.openai.com/v1"
	}
	model := os.Getenv("EXTRACTOR_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAIChat{
		baseURL: base,
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *openAIChat) Extract(ctx context.Context, question string) ([]string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	chatURL := *base
	chatURL.Path = path.Join(chatURL.Path, "/chat/completions")

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": question},
		},
		"temperature": 0,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var b struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		if b.Error.Message != "" {
			return nil, fmt.Errorf("extractor error: %s", b.Error.Message)
		}
		return nil, fmt.Errorf("extractor http status: %s", resp.Status)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("extractor returned no choices")
	}
	return ParseEntityList(out.Choices[0].Message.Content), nil
}
