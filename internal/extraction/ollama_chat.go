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
	"time"
)

type ollamaChat struct {
	host  string
	model string
	http  *http.Client
}

func newOllamaChatFromEnv() Extractor {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		return nil
	}
	model := os.Getenv("EXTRACTOR_MODEL")
	if model == "" {
		model = "llama3.1"
	}
	return &ollamaChat{host: host, model: model, http: &http.Client{Timeout: 120 * time.Second}}
}

func (c *ollamaChat) Extract(ctx context.Context, question string) ([]string, error) {
	base, err := url.Parse(c.host)
	if err != nil {
		return nil, err
	}
	chatURL := *base
	chatURL.Path = path.Join(chatURL.Path, "/api/chat")

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": question},
		},
		"stream": false,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var b struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		if b.Error != "" {
			return nil, fmt.Errorf("ollama extractor error: %s", b.Error)
		}
		return nil, fmt.Errorf("ollama extractor http status: %s", resp.Status)
	}

	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return ParseEntityList(out.Message.Content), nil
}
