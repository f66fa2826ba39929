package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDisabled(t *testing.T) {
	t.Setenv("EMBEDDINGS_PROVIDER", "")
	assert.Nil(t, NewFromEnv())

	t.Setenv("EMBEDDINGS_PROVIDER", "something-else")
	assert.Nil(t, NewFromEnv())
}

func TestNewFromEnvOllama(t *testing.T) {
	t.Setenv("EMBEDDINGS_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")
	t.Setenv("OLLAMA_EMBEDDINGS_DIMS", "1024")

	p := NewFromEnv()
	require.NotNil(t, p)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, 1024, p.Dimensions())
}

func TestNewFromEnvOllamaWithoutHost(t *testing.T) {
	t.Setenv("EMBEDDINGS_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", "")
	assert.Nil(t, NewFromEnv())
}

func TestNewFromEnvOpenAI(t *testing.T) {
	t.Setenv("EMBEDDINGS_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-large")

	p := NewFromEnv()
	require.NotNil(t, p)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, 3072, p.Dimensions())
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"anemia", "aspirin"}, body.Input)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer srv.Close()

	t.Setenv("EMBEDDINGS_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", srv.URL)
	p := NewFromEnv()
	require.NotNil(t, p)

	vecs, err := p.Embed(context.Background(), []string{"anemia", "aspirin"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vecs[0])
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	defer srv.Close()

	t.Setenv("EMBEDDINGS_PROVIDER", "ollama")
	t.Setenv("OLLAMA_HOST", srv.URL)
	p := NewFromEnv()
	require.NotNil(t, p)

	_, err := p.Embed(context.Background(), []string{"term"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestF64To32(t *testing.T) {
	out := f64to32([]float64{1.5, -0.25})
	assert.Equal(t, []float32{1.5, -0.25}, out)
}
