// Package embeddings provides the Gemini-backed embedding client used for
// semantic key matching.
package embeddings

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "gemini-embedding-001"

// Gemini embeds text through the Gemini API. The underlying client is
// created lazily on the first call and reused afterwards.
type Gemini struct {
	apiKey string
	model  string
	log    zerolog.Logger

	mu     sync.Mutex
	client *genai.Client
}

// GeminiOption configures a Gemini embedder.
type GeminiOption func(*Gemini)

// WithModel overrides the embedding model.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) { g.model = model }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) GeminiOption {
	return func(g *Gemini) { g.log = log }
}

// NewGemini creates a Gemini embedder. The API key is required; the client
// itself is not dialed until the first Embed call.
func NewGemini(apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}
	g := &Gemini{
		apiKey: apiKey,
		model:  DefaultModel,
		log:    *logging.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Embed returns the embedding vector for a single text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := g.getOrCreateClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := client.Models.EmbedContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, errors.WrapTransport("gemini", 0, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, &errors.InferenceError{Key: text, Err: errors.ErrInferenceFailed}
	}

	g.log.Debug().Str("model", g.model).Int("dims", len(resp.Embeddings[0].Values)).Msg("embedded text")
	return resp.Embeddings[0].Values, nil
}

func (g *Gemini) getOrCreateClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  g.apiKey,
	})
	if err != nil {
		return nil, errors.WrapTransport("gemini", 0, err)
	}

	g.client = client
	return client, nil
}
