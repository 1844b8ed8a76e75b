// Package jsonmend reconciles loosely structured, LLM-generated JSON
// against a caller-supplied schema. A submitted schema is canonicalized
// once; each reconciliation request then runs the input through heuristic
// matching, type coercion, and optional fuzzy and semantic key re-homing,
// and returns a partition of matched, unmatched, and errored keys with
// matched values mapped back to the schema's original spellings.
package jsonmend

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
	"github.com/jsonmend/jsonmend/pkg/match"
	"github.com/jsonmend/jsonmend/pkg/reconcile"
	"github.com/jsonmend/jsonmend/pkg/responder"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

// Client reconciles documents against a submitted schema.
type Client interface {
	// SubmitSchema canonicalizes and validates a schema. It must be called
	// before any reconciliation. Submitting again replaces the schema.
	SubmitSchema(input any) error

	// SchemaSubmitted reports whether a schema is in place.
	SchemaSubmitted() bool

	// RegisterType teaches the schema normalizer an additional type token,
	// e.g. mapping "timestamp" to the string type.
	RegisterType(token string, t schema.Type)

	// AddField extends the submitted schema with one more field.
	AddField(originalKey string, def any) error

	// Reconcile aligns a document against the submitted schema. The document
	// may be a string-keyed map or a JSON or YAML text.
	Reconcile(ctx context.Context, data any) (*Result, error)

	// Ask sends a query to the configured responder, asks it to answer in
	// the schema's shape, and reconciles the reply.
	Ask(ctx context.Context, query string) (*Result, error)

	// ExampleDocument renders a JSON document with placeholder values
	// showing the shape the schema expects, using original key spellings.
	ExampleDocument() (string, error)

	// FieldInstructions renders the per-field prompt lines collected from
	// the schema, one per field that declared one.
	FieldInstructions() (string, error)

	// ValidateDocument checks a document against the schema's structural
	// rules without reconciling it.
	ValidateDocument(data any) error
}

// client is the internal implementation of the Client interface
type client struct {
	config  *config
	norm    *schema.Normalizer
	engine  *reconcile.Engine
	matcher *match.Matcher
	asker   responder.Responder
	log     zerolog.Logger
}

// New creates a new Client instance with the given options
func New(opts ...Option) (Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	log := *logging.Default()
	if cfg.logger != nil {
		log = *cfg.logger
	}

	c := &client{
		config: cfg,
		norm:   schema.NewNormalizer(schema.WithLogger(log)),
		log:    log,
	}
	c.engine = reconcile.NewEngine(c.norm,
		reconcile.WithListEntityPolicy(cfg.listEntityPolicy),
		reconcile.WithEngineLogger(log),
	)

	if cfg.fuzzyEnabled {
		matchOpts := []match.Option{
			match.WithSurfaceThreshold(cfg.surfaceThreshold),
			match.WithSemanticThreshold(cfg.semanticThreshold),
			match.WithLogger(log),
		}
		if cfg.embedder != nil {
			matchOpts = append(matchOpts, match.WithEmbedder(cfg.embedder))
		}
		c.matcher = match.New(matchOpts...)
	}

	if cfg.responder != nil {
		c.asker = responder.WithRetry(cfg.responder,
			responder.WithAttempts(cfg.retryAttempts),
			responder.WithRetryLogger(log),
		)
	}

	return c, nil
}

// SubmitSchema canonicalizes and validates a schema, replacing any prior one.
func (c *client) SubmitSchema(input any) error {
	_, err := c.norm.Submit(input)
	return err
}

// SchemaSubmitted reports whether a schema is in place.
func (c *client) SchemaSubmitted() bool {
	return c.norm.Submitted()
}

// RegisterType teaches the normalizer an additional type token.
func (c *client) RegisterType(token string, t schema.Type) {
	c.norm.RegisterType(token, t)
}

// AddField extends the submitted schema with one more field.
func (c *client) AddField(originalKey string, def any) error {
	return c.norm.AddField(originalKey, def)
}

// Reconcile aligns a document against the submitted schema.
func (c *client) Reconcile(ctx context.Context, data any) (*Result, error) {
	s := c.norm.Schema()
	if s == nil {
		return nil, errors.ErrSchemaNotSubmitted
	}

	doc, err := decodeData(data)
	if err != nil {
		return nil, err
	}

	acc := reconcile.NewAccumulator(s.Keys, c.log)

	heuristic, err := c.engine.Process(doc)
	if err != nil {
		return nil, err
	}
	acc.AddPass("heuristic", heuristic)

	if c.matcher != nil && len(acc.Partition().Unmatched) > 0 {
		acc.AddPass("rematch", c.matcher.Rematch(ctx, acc.Partition(), s))
	}

	return c.result(acc), nil
}

// Ask queries the responder for a document in the schema's shape and
// reconciles the reply.
func (c *client) Ask(ctx context.Context, query string) (*Result, error) {
	s := c.norm.Schema()
	if s == nil {
		return nil, errors.ErrSchemaNotSubmitted
	}
	if c.asker == nil {
		return nil, errors.NewConfigError("responder", "no responder configured", errors.ErrResponderUnavailable)
	}

	prompt, err := c.buildPrompt(s, query)
	if err != nil {
		return nil, err
	}

	reply, err := c.asker.Send(ctx, prompt)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Int("reply_len", len(reply)).Msg("responder reply received")
	return c.Reconcile(ctx, reply)
}

// ExampleDocument renders the schema's example JSON document.
func (c *client) ExampleDocument() (string, error) {
	s := c.norm.Schema()
	if s == nil {
		return "", errors.ErrSchemaNotSubmitted
	}
	return s.GenerateExample()
}

// FieldInstructions renders the schema's per-field prompt lines.
func (c *client) FieldInstructions() (string, error) {
	s := c.norm.Schema()
	if s == nil {
		return "", errors.ErrSchemaNotSubmitted
	}
	return s.FieldInstructions(), nil
}

// ValidateDocument checks a document against the schema's structural rules.
func (c *client) ValidateDocument(data any) error {
	s := c.norm.Schema()
	if s == nil {
		return errors.ErrSchemaNotSubmitted
	}
	doc, err := decodeData(data)
	if err != nil {
		return err
	}
	return s.ValidateData(doc)
}

// buildPrompt asks for an answer shaped like the schema's example document,
// with any per-field guidance appended.
func (c *client) buildPrompt(s *schema.Schema, query string) (string, error) {
	example, err := s.GenerateExample()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Answer the question below. Reply with a single JSON document ")
	b.WriteString("shaped exactly like this example, replacing the placeholder values:\n\n")
	b.WriteString(example)
	b.WriteString("\n")
	if instructions := s.FieldInstructions(); instructions != "" {
		b.WriteString("\nField guidance:\n")
		b.WriteString(instructions)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nReply with JSON only, no prose and no code fences.")
	return b.String(), nil
}

// result finalizes the accumulated passes into a caller-facing Result. The
// rematch pass carries prior errors and untouched unmatched keys forward, so
// the incremental state is already complete and no replay is needed.
func (c *client) result(acc *reconcile.Accumulator) *Result {
	matched := acc.Finalize(false)
	p := acc.Partition()
	mapper := acc.Mapper()

	document, err := mapper.Document(p.Matched)
	if err != nil {
		c.log.Warn().Err(err).Msg("document assembly failed")
	}

	return &Result{
		RequestID:   uuid.NewString(),
		Matched:     matched,
		Unmatched:   entries(p.Unmatched, mapper),
		Errors:      entries(p.Errors, mapper),
		Diagnostics: p.Diagnostics,
		Passes:      acc.PassNames(),
		Document:    document,
	}
}

// decodeData accepts a string-keyed map or a JSON or YAML text.
func decodeData(data any) (map[string]any, error) {
	switch in := data.(type) {
	case nil:
		return nil, fmt.Errorf("%w: document is nil", errors.ErrInvalidInput)
	case map[string]any:
		return in, nil
	case string:
		return decodeDataText([]byte(in))
	case []byte:
		return decodeDataText(in)
	default:
		rv := reflect.ValueOf(data)
		if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			doc := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				doc[iter.Key().String()] = iter.Value().Interface()
			}
			return doc, nil
		}
		return nil, fmt.Errorf("%w: unrecognized document shape %T", errors.ErrInvalidInput, data)
	}
}

func decodeDataText(raw []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("%w: document is empty", errors.ErrInvalidInput)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapParse("yaml", err)
	}
	return doc, nil
}
