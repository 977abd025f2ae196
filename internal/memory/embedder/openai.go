package embedder

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, memory.NewEmbedderUnavailableError(
			"OpenAI embedder requires api_key (or OPENAI_API_KEY environment variable)", nil)
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, memory.NewEmbedderUnavailableError("failed to create OpenAI client", err)
	}

	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, memory.NewEmbedderUnavailableError("failed to create OpenAI embedder", err)
	}

	return &OpenAIEmbedder{
		embedder:   emb,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, memory.NewEmbeddingError("OpenAI embedding request failed", err)
	}
	return toFloat64(vec), nil
}

// EmbedBatch generates embeddings for multiple texts in one API call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, memory.NewEmbeddingError("OpenAI batch embedding request failed", err)
	}

	out := make([][]float64, len(vecs))
	for i, vec := range vecs {
		out[i] = toFloat64(vec)
	}
	return out, nil
}

// Dimensions returns the dimensionality of embedding vectors.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the name of the embedding model being used.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Health probes the API with a minimal embedding request.
func (e *OpenAIEmbedder) Health(ctx context.Context) types.HealthStatus {
	if _, err := e.embedder.EmbedQuery(ctx, "ping"); err != nil {
		return types.Unhealthy("OpenAI embeddings API unreachable: " + err.Error())
	}
	return types.Healthy("OpenAI embedder operational")
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
