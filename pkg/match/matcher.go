// Package match re-homes unmatched keys onto schema keys using two
// escalating strategies: surface similarity over edit distance (typos,
// abbreviations), then embedding cosine similarity (synonyms). Each unmatched
// key is handled independently and the first strategy to clear its threshold
// wins; keys passing neither remain unmatched.
package match

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/logging"
	"github.com/jsonmend/jsonmend/pkg/reconcile"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

// Default acceptance thresholds. Surface matching is held to a high bar
// because edit distance is cheap to fool; semantic matching runs on the
// leftovers with a lower bar.
const (
	DefaultSurfaceThreshold  = 0.80
	DefaultSemanticThreshold = 0.60
)

// Embedder computes a fixed-size embedding vector for a text. The backend is
// expensive to initialize, so implementations are constructed once and must
// be safe for concurrent calls; each call is an independent, side-effect-free
// inference.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Matcher applies the escalating strategies to a partition's unmatched keys.
type Matcher struct {
	embedder          Embedder
	surfaceThreshold  float64
	semanticThreshold float64
	log               zerolog.Logger

	mu      sync.Mutex
	vectors map[string][]float32
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithEmbedder enables semantic matching with the given backend. Without an
// embedder the matcher runs surface matching only.
func WithEmbedder(e Embedder) Option {
	return func(m *Matcher) { m.embedder = e }
}

// WithSurfaceThreshold overrides the surface similarity acceptance bar.
func WithSurfaceThreshold(t float64) Option {
	return func(m *Matcher) { m.surfaceThreshold = t }
}

// WithSemanticThreshold overrides the semantic similarity acceptance bar.
func WithSemanticThreshold(t float64) Option {
	return func(m *Matcher) { m.semanticThreshold = t }
}

// WithLogger sets the logger for re-homing diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Matcher) { m.log = log }
}

// New creates a Matcher with the default thresholds.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		surfaceThreshold:  DefaultSurfaceThreshold,
		semanticThreshold: DefaultSemanticThreshold,
		log:               *logging.Default(),
		vectors:           make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rematch produces the fuzzy/semantic pass over an accumulated partition.
// Re-homed values are coerced to the target field's type; prior errors and
// keys that still match nothing are carried forward so accumulation never
// drops them. An embedding failure on one key downgrades that key to
// unmatched and is never fatal to the request.
func (m *Matcher) Rematch(ctx context.Context, p reconcile.Partition, s *schema.Schema) reconcile.Partition {
	out := reconcile.NewPartition()
	for k, v := range p.Errors {
		out.Errors[k] = v
	}

	targets := s.CanonicalKeys()
	if len(targets) == 0 {
		for k, v := range p.Unmatched {
			out.Unmatched[k] = v
		}
		return out
	}

	keys := make([]string, 0, len(p.Unmatched))
	for k := range p.Unmatched {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := p.Unmatched[key]
		leaf := leafOf(key)

		if target, score := bestSurface(leaf, targets); score >= m.surfaceThreshold {
			m.log.Debug().
				Str("key", key).
				Str("target", target).
				Float64("score", score).
				Str("strategy", "surface").
				Msg("re-homed unmatched key")
			m.rehome(&out, target, value, s)
			continue
		}

		if m.embedder == nil {
			out.Unmatched[key] = value
			continue
		}

		target, score, err := m.bestSemantic(ctx, leaf, targets)
		if err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("embedding backend failed; key left unmatched")
			out.Unmatched[key] = value
			continue
		}
		if score >= m.semanticThreshold {
			m.log.Debug().
				Str("key", key).
				Str("target", target).
				Float64("score", score).
				Str("strategy", "semantic").
				Msg("re-homed unmatched key")
			m.rehome(&out, target, value, s)
			continue
		}

		out.Unmatched[key] = value
	}

	return out
}

// rehome coerces a re-homed value to its target field type. The target may
// live at any nesting level, so the field is resolved by searching the tree
// rather than from the root. Coercion failures land in errors at the target
// key, per the usual precedence.
func (m *Matcher) rehome(p *reconcile.Partition, target string, value any, s *schema.Schema) {
	targetType := schema.TypeUndefined
	if field := s.FieldFor(target); field != nil {
		targetType = field.Type
	}
	coerced, err := reconcile.Coerce(value, targetType)
	if err != nil {
		p.Errors[target] = value
		return
	}
	p.Matched[target] = coerced
}

// bestSurface returns the schema key with the highest normalized
// edit-distance similarity to the candidate.
func bestSurface(candidate string, targets []string) (string, float64) {
	best, bestScore := "", -1.0
	for _, t := range targets {
		if score := surfaceSimilarity(candidate, t); score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, bestScore
}

// bestSemantic returns the schema key with the highest cosine similarity to
// the candidate's embedding. Target vectors are computed once and cached.
func (m *Matcher) bestSemantic(ctx context.Context, candidate string, targets []string) (string, float64, error) {
	vec, err := m.embed(ctx, candidate)
	if err != nil {
		return "", 0, err
	}

	best, bestScore := "", -1.0
	for _, t := range targets {
		tv, err := m.embed(ctx, t)
		if err != nil {
			return "", 0, err
		}
		if score := cosine(vec, tv); score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, bestScore, nil
}

// embed returns a cached vector or asks the backend.
func (m *Matcher) embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	if vec, ok := m.vectors[text]; ok {
		m.mu.Unlock()
		return vec, nil
	}
	m.mu.Unlock()

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.vectors[text] = vec
	m.mu.Unlock()
	return vec, nil
}

// surfaceSimilarity is a normalized edit-distance ratio in [0, 1].
func surfaceSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// cosine computes cosine similarity between two vectors, 0 for mismatched or
// zero-magnitude inputs.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// leafOf strips the path prefix and any index suffix from an unmatched key,
// leaving the segment that names the field.
func leafOf(key string) string {
	if idx := strings.LastIndexByte(key, '.'); idx >= 0 {
		key = key[idx+1:]
	}
	if idx := strings.IndexByte(key, '['); idx >= 0 {
		key = key[:idx]
	}
	return key
}
