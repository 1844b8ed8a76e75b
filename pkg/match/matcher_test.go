package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
	"github.com/jsonmend/jsonmend/pkg/reconcile"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

// fakeEmbedder returns canned vectors per text and fails on anything else.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return nil, errors.NewInferenceError(text, errors.ErrInferenceFailed)
}

func newTestSchema(t *testing.T, doc map[string]any) *schema.Schema {
	t.Helper()
	norm := schema.NewNormalizer(schema.WithLogger(logging.Nop))
	s, err := norm.Submit(doc)
	require.NoError(t, err)
	return s
}

func unmatchedPartition(entries map[string]any) reconcile.Partition {
	p := reconcile.NewPartition()
	for k, v := range entries {
		p.Unmatched[k] = v
	}
	return p
}

func TestSurfaceSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, surfaceSimilarity("name", "name"))
	assert.Equal(t, 1.0, surfaceSimilarity("", ""))
	assert.Greater(t, surfaceSimilarity("contactnumbr", "contact_number"), 0.8)
	assert.Less(t, surfaceSimilarity("phone", "contact_number"), 0.5)
}

func TestRematchSurface(t *testing.T) {
	s := newTestSchema(t, map[string]any{
		"Contact Number": "string",
		"name":           "string",
	})
	m := New(WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"contactnumbr": "555-1234",
	}), s)

	assert.Equal(t, "555-1234", out.Matched["contact_number"])
	assert.Empty(t, out.Unmatched)
}

func TestRematchCoercesToTargetType(t *testing.T) {
	s := newTestSchema(t, map[string]any{"Quantity": "integer"})
	m := New(WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"quantty": "36",
	}), s)

	assert.Equal(t, int64(36), out.Matched["quantity"])
}

func TestRematchNestedTarget(t *testing.T) {
	s := newTestSchema(t, map[string]any{
		"person": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"Contact Number": "string",
			},
		},
	})
	m := New(WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"contactnumbr": "555-1234",
	}), s)

	assert.Equal(t, "555-1234", out.Matched["contact_number"])
	assert.Empty(t, out.Errors)
	assert.Empty(t, out.Unmatched)
}

func TestRematchNestedTargetCoercesToFieldType(t *testing.T) {
	s := newTestSchema(t, map[string]any{
		"order": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"Quantity": "integer",
			},
		},
	})
	m := New(WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"quantty": "36",
	}), s)

	assert.Equal(t, int64(36), out.Matched["quantity"])
}

func TestRematchCoercionFailureLandsInErrors(t *testing.T) {
	s := newTestSchema(t, map[string]any{"Quantity": "integer"})
	m := New(WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"quantty": "unknown",
	}), s)

	assert.Empty(t, out.Matched)
	assert.Equal(t, "unknown", out.Errors["quantity"])
}

func TestRematchSemantic(t *testing.T) {
	s := newTestSchema(t, map[string]any{
		"contact_number": "string",
		"name":           "string",
	})

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"phone":          {1, 0, 0},
		"contact_number": {0.9, 0.1, 0},
		"name":           {0, 1, 0},
	}}
	m := New(WithEmbedder(embedder), WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"phone": "555-1234",
	}), s)

	assert.Equal(t, "555-1234", out.Matched["contact_number"])
}

func TestRematchBelowThresholdStaysUnmatched(t *testing.T) {
	s := newTestSchema(t, map[string]any{"name": "string"})

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"zzz":  {1, 0},
		"name": {0, 1},
	}}
	m := New(WithEmbedder(embedder), WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"zzz": "value",
	}), s)

	assert.Empty(t, out.Matched)
	assert.Equal(t, "value", out.Unmatched["zzz"])
}

func TestRematchEmbedderFailureDowngrades(t *testing.T) {
	s := newTestSchema(t, map[string]any{"name": "string"})

	// The embedder knows no vectors at all, so every inference fails.
	embedder := &fakeEmbedder{}
	m := New(WithEmbedder(embedder), WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"zzzz": "value",
	}), s)

	assert.Equal(t, "value", out.Unmatched["zzzz"])
	assert.Empty(t, out.Errors)
}

func TestRematchCarriesPriorErrors(t *testing.T) {
	s := newTestSchema(t, map[string]any{"age": "integer"})
	m := New(WithLogger(logging.Nop))

	p := unmatchedPartition(nil)
	p.Errors["age"] = "unknown"

	out := m.Rematch(context.Background(), p, s)
	assert.Equal(t, "unknown", out.Errors["age"])
}

func TestRematchUsesLeafSegment(t *testing.T) {
	s := newTestSchema(t, map[string]any{"email": "string"})
	m := New(WithLogger(logging.Nop))

	out := m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"user.contact.emaill": "ada@example.com",
	}), s)

	assert.Equal(t, "ada@example.com", out.Matched["email"])
}

func TestRematchCachesTargetVectors(t *testing.T) {
	s := newTestSchema(t, map[string]any{"name": "string"})

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"aaaa": {1, 0},
		"bbbb": {1, 0},
		"name": {0, 1},
	}}
	m := New(WithEmbedder(embedder), WithLogger(logging.Nop))

	_ = m.Rematch(context.Background(), unmatchedPartition(map[string]any{
		"aaaa": 1,
		"bbbb": 2,
	}), s)

	// Two candidates plus one target; the target vector is computed once.
	assert.Equal(t, 3, embedder.calls)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}), "mismatched lengths")
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 2}), "zero magnitude")
}
