// Package responder abstracts the generative text backend that answers
// reconciliation prompts. Two backends are provided, OpenAI chat completions
// and Gemini, plus a retry decorator that validates replies as JSON and
// retries transient failures with exponential backoff.
package responder

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jsonmend/jsonmend/pkg/errors"
)

// Responder sends a prompt to a generative backend and returns the raw
// reply text. Implementations must be safe for concurrent use.
type Responder interface {
	Send(ctx context.Context, request string) (string, error)
}

// Func adapts a function to the Responder interface.
type Func func(ctx context.Context, request string) (string, error)

// Send implements Responder.
func (f Func) Send(ctx context.Context, request string) (string, error) {
	return f(ctx, request)
}

// ExtractJSON strips markdown code fences from a reply and verifies the
// remainder parses as JSON. Models frequently wrap structured output in
// ```json fences even when told not to.
func ExtractJSON(reply string) (string, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		// The opening fence line may carry a language tag in any spelling
		// ("```json", "``` json", "```JSON"); drop the whole line.
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if !gjson.Valid(text) {
		return "", errors.ErrInvalidJSON
	}
	return text, nil
}
