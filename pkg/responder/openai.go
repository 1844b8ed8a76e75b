package responder

import (
	"context"
	stderrors "errors"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI answers prompts through the OpenAI chat completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	system      string
	temperature float64
	log         zerolog.Logger
}

// OpenAIOption configures an OpenAI responder.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel overrides the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) { o.model = model }
}

// WithOpenAISystemPrompt sets a system message sent before every request.
func WithOpenAISystemPrompt(prompt string) OpenAIOption {
	return func(o *OpenAI) { o.system = prompt }
}

// WithOpenAITemperature overrides the sampling temperature. Reconciliation
// prompts default to 0 for deterministic output.
func WithOpenAITemperature(t float64) OpenAIOption {
	return func(o *OpenAI) { o.temperature = t }
}

// WithOpenAIBaseURL points the client at a compatible endpoint, useful for
// proxies and test servers.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		o.client = openai.NewClient(
			append(o.client.Options, option.WithBaseURL(url))...,
		)
	}
}

// WithOpenAILogger sets the logger.
func WithOpenAILogger(log zerolog.Logger) OpenAIOption {
	return func(o *OpenAI) { o.log = log }
}

// NewOpenAI creates an OpenAI responder.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}
	o := &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultOpenAIModel,
		log:    *logging.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Send implements Responder.
func (o *OpenAI) Send(ctx context.Context, request string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if o.system != "" {
		messages = append(messages, openai.SystemMessage(o.system))
	}
	messages = append(messages, openai.UserMessage(request))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if stderrors.As(err, &apiErr) {
			return "", errors.NewTransportError("openai", apiErr.StatusCode, apiErr.Message, err)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.ErrTimeout
		}
		return "", errors.WrapTransport("openai", 0, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewTransportError("openai", 0, "empty choices in completion", nil)
	}

	o.log.Debug().
		Str("model", o.model).
		Int("prompt_len", len(request)).
		Msg("completion received")
	return resp.Choices[0].Message.Content, nil
}
