// Package extraction turns a clinical question into the list of medical
// entity mentions the resolver should look up.
package extraction

import (
	"context"
	"os"
	"strings"
)

// Extractor produces clinically relevant entity mentions for a question.
type Extractor interface {
	Extract(ctx context.Context, question string) ([]string, error)
}

const systemPrompt = `You are a medical entity extractor. Given a clinical question, ` +
	`list the clinically relevant entities it mentions (diseases, symptoms, drugs, ` +
	`procedures, anatomy, patient populations). Output one entity per line, nothing else.`

// NewFromEnv constructs an extractor based on environment variables.
// EXTRACTOR_PROVIDER: "openai", "ollama", or empty for disabled.
func NewFromEnv() Extractor {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("EXTRACTOR_PROVIDER")))
	switch name {
	case "openai":
		return newOpenAIChatFromEnv()
	case "ollama":
		return newOllamaChatFromEnv()
	default:
		return nil
	}
}

// ParseEntityList splits a newline-delimited model response into entity
// mentions, stripping list markers and blank lines.
func ParseEntityList(raw string) []string {
	var entities []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = trimListNumber(line)
		line = strings.Trim(line, "\"'")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entities = append(entities, line)
	}
	return entities
}

// trimListNumber removes a leading "1." / "2)" style marker.
func trimListNumber(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return s
	}
	if s[i] == '.' || s[i] == ')' {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
