package jsonmend

import (
	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/match"
	"github.com/jsonmend/jsonmend/pkg/reconcile"
	"github.com/jsonmend/jsonmend/pkg/responder"
)

// Option is a function that configures a Client instance
type Option func(*config) error

type config struct {
	responder         responder.Responder
	embedder          match.Embedder
	logger            *zerolog.Logger
	surfaceThreshold  float64
	semanticThreshold float64
	listEntityPolicy  reconcile.ListEntityPolicy
	fuzzyEnabled      bool
	retryAttempts     int
}

func defaultClientConfig() *config {
	return &config{
		surfaceThreshold:  match.DefaultSurfaceThreshold,
		semanticThreshold: match.DefaultSemanticThreshold,
		listEntityPolicy:  reconcile.ListEntityFirst,
		fuzzyEnabled:      true,
		retryAttempts:     responder.DefaultAttempts,
	}
}

// WithResponder configures the generative backend used by Ask.
func WithResponder(r responder.Responder) Option {
	return func(c *config) error {
		c.responder = r
		return nil
	}
}

// WithEmbedder configures the embedding backend for semantic key matching.
// Without one, matching stops after the surface strategy.
func WithEmbedder(e match.Embedder) Option {
	return func(c *config) error {
		c.embedder = e
		return nil
	}
}

// WithLogger configures the logger used by all pipeline stages.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = &log
		return nil
	}
}

// WithSurfaceThreshold configures the edit-distance similarity acceptance
// bar for re-homing unmatched keys.
func WithSurfaceThreshold(t float64) Option {
	return func(c *config) error {
		c.surfaceThreshold = t
		return nil
	}
}

// WithSemanticThreshold configures the embedding cosine similarity
// acceptance bar for re-homing unmatched keys.
func WithSemanticThreshold(t float64) Option {
	return func(c *config) error {
		c.semanticThreshold = t
		return nil
	}
}

// WithListEntityPolicy configures how multiple complete entities found in a
// single list are handled.
func WithListEntityPolicy(p reconcile.ListEntityPolicy) Option {
	return func(c *config) error {
		c.listEntityPolicy = p
		return nil
	}
}

// WithoutFuzzyMatch disables the fuzzy/semantic re-homing pass entirely, so
// reconciliation runs heuristics only.
func WithoutFuzzyMatch() Option {
	return func(c *config) error {
		c.fuzzyEnabled = false
		return nil
	}
}

// WithRetryAttempts configures how many times Ask retries a failed or
// non-JSON responder call, including the first attempt.
func WithRetryAttempts(n int) Option {
	return func(c *config) error {
		c.retryAttempts = n
		return nil
	}
}
