package responder

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
)

// DefaultGeminiModel is the generative model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini answers prompts through the Gemini API. The client is created
// lazily on the first call and reused afterwards.
type Gemini struct {
	apiKey      string
	model       string
	system      string
	temperature float32
	log         zerolog.Logger

	mu     sync.Mutex
	client *genai.Client
}

// GeminiOption configures a Gemini responder.
type GeminiOption func(*Gemini)

// WithGeminiModel overrides the generative model.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) { g.model = model }
}

// WithGeminiSystemPrompt sets the system instruction sent with every request.
func WithGeminiSystemPrompt(prompt string) GeminiOption {
	return func(g *Gemini) { g.system = prompt }
}

// WithGeminiTemperature overrides the sampling temperature.
func WithGeminiTemperature(t float32) GeminiOption {
	return func(g *Gemini) { g.temperature = t }
}

// WithGeminiLogger sets the logger.
func WithGeminiLogger(log zerolog.Logger) GeminiOption {
	return func(g *Gemini) { g.log = log }
}

// NewGemini creates a Gemini responder.
func NewGemini(apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}
	g := &Gemini{
		apiKey: apiKey,
		model:  DefaultGeminiModel,
		log:    *logging.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Send implements Responder.
func (g *Gemini) Send(ctx context.Context, request string) (string, error) {
	client, err := g.getOrCreateClient(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if g.system != "" {
		config.SystemInstruction = genai.NewContentFromText(g.system, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(request), config)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.ErrTimeout
		}
		var apiErr genai.APIError
		if stderrors.As(err, &apiErr) {
			return "", errors.NewTransportError("gemini", apiErr.Code, apiErr.Message, err)
		}
		return "", errors.WrapTransport("gemini", 0, err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.NewTransportError("gemini", 0, "empty candidates in response", nil)
	}

	g.log.Debug().
		Str("model", g.model).
		Int("prompt_len", len(request)).
		Msg("completion received")
	return text, nil
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
