package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Embedding is one embedding result with the index of the text it was
// computed for. Batch responses are not guaranteed to preserve submission
// order, so consumers must re-sort by Index before zipping with their
// request.
type Embedding struct {
	Index  int
	Values []float32
}

// Gemini wraps the Vertex AI API for embeddings and structured generation
type Gemini interface {
	// Embed computes embeddings for a batch of texts. Callers must keep
	// batches at or below EmbedBatchLimit.
	Embed(ctx context.Context, texts []string) ([]Embedding, error)

	// GenerateContent runs the generative model, used by the memory
	// extraction collaborator
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// EmbedBatchLimit is the maximum number of texts per embedding call
const EmbedBatchLimit = 100

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimensions      int32
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithDimensions(d int32) GeminiOption {
	return func(g *GeminiClient) {
		g.dimensions = d
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
		dimensions:      768,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Embed(ctx context.Context, texts []string) ([]Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > EmbedBatchLimit {
		return nil, goerr.New("embedding batch too large", goerr.V("size", len(texts)))
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &g.dimensions,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("requested", len(texts)), goerr.V("returned", len(resp.Embeddings)))
	}

	out := make([]Embedding, 0, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out = append(out, Embedding{Index: i, Values: e.Values})
	}
	return out, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}
	return resp, nil
}
