package jsonmend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
	"github.com/jsonmend/jsonmend/pkg/responder"
	"github.com/jsonmend/jsonmend/pkg/schema"
)

func newTestClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Nop)}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestReconcileRequiresSchema(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Reconcile(context.Background(), map[string]any{"a": 1})
	assert.True(t, errors.IsSchemaNotSubmitted(err))
}

func TestSubmitSchemaRejectsInvalid(t *testing.T) {
	c := newTestClient(t)
	err := c.SubmitSchema(map[string]any{"when": "timestamp"})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.False(t, c.SchemaSubmitted())
}

func TestReconcileEndToEnd(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SubmitSchema(map[string]any{
		"Full Name":      "string",
		"Age (years)":    "integer",
		"Contact Number": "string",
	}))

	result, err := c.Reconcile(context.Background(), map[string]any{
		"full name":    "Ada Lovelace",
		"age":          "thirty-six",
		"contactnumbr": "555-1234",
		"hobby":        "mathematics",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", result.Matched["Full Name"])
	assert.Equal(t, int64(36), result.Matched["Age (years)"])
	assert.Equal(t, "555-1234", result.Matched["Contact Number"], "typo re-homed by surface matching")

	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "hobby", result.Unmatched[0].Key)
	assert.Equal(t, "mathematics", result.Unmatched[0].Value)

	assert.Equal(t, []string{"heuristic", "rematch"}, result.Passes)
	assert.NotEmpty(t, result.RequestID)
	assert.Contains(t, result.Document, `"Full Name":"Ada Lovelace"`)
	assert.False(t, result.Complete())
}

func TestReconcileAcceptsJSONText(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SubmitSchema(map[string]any{"name": "string"}))

	result, err := c.Reconcile(context.Background(), `{"name": "Ada"}`)
	require.NoError(t, err)
	assert.Equal(t, "Ada", result.Matched["name"])
	assert.True(t, result.Complete())
}

func TestReconcileRejectsGarbageInput(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SubmitSchema(map[string]any{"name": "string"}))

	_, err := c.Reconcile(context.Background(), 42)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestReconcileWithoutFuzzyMatch(t *testing.T) {
	c := newTestClient(t, WithoutFuzzyMatch())
	require.NoError(t, c.SubmitSchema(map[string]any{"Contact Number": "string"}))

	result, err := c.Reconcile(context.Background(), map[string]any{
		"contactnumbr": "555-1234",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Matched)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, []string{"heuristic"}, result.Passes)
}

func TestReconcileErrorsKeepOriginalValue(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SubmitSchema(map[string]any{"age": "integer"}))

	result, err := c.Reconcile(context.Background(), map[string]any{"age": "unknown"})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "age", result.Errors[0].Key)
	assert.Equal(t, "unknown", result.Errors[0].Value)
}

func TestAskEndToEnd(t *testing.T) {
	var prompt string
	stub := responder.Func(func(_ context.Context, request string) (string, error) {
		prompt = request
		return "```json\n{\"name\": \"Ada\", \"age\": \"36\"}\n```", nil
	})

	c := newTestClient(t, WithResponder(stub))
	require.NoError(t, c.SubmitSchema(map[string]any{
		"name": map[string]any{"type": "string", "prompt": "use the legal name"},
		"age":  "integer",
	}))

	result, err := c.Ask(context.Background(), "Who wrote the first program?")
	require.NoError(t, err)

	assert.Equal(t, "Ada", result.Matched["name"])
	assert.Equal(t, int64(36), result.Matched["age"])
	assert.True(t, result.Complete())

	// The prompt carried the example document, the field guidance, and
	// the caller's query.
	assert.Contains(t, prompt, `"name": "text"`)
	assert.Contains(t, prompt, "use the legal name")
	assert.Contains(t, prompt, "Who wrote the first program?")
}

func TestAskRequiresResponder(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.SubmitSchema(map[string]any{"name": "string"}))

	_, err := c.Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, errors.ErrResponderUnavailable)
}

func TestAskRetriesNonJSONReply(t *testing.T) {
	calls := 0
	stub := responder.Func(func(_ context.Context, _ string) (string, error) {
		calls++
		if calls == 1 {
			return "I cannot answer in JSON, sorry.", nil
		}
		return `{"name": "Ada"}`, nil
	})

	c := newTestClient(t, WithResponder(stub), WithRetryAttempts(2))
	require.NoError(t, c.SubmitSchema(map[string]any{"name": "string"}))

	result, err := c.Ask(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Ada", result.Matched["name"])
	assert.Equal(t, 2, calls)
}

func TestExampleDocumentAndInstructions(t *testing.T) {
	c := newTestClient(t)

	_, err := c.ExampleDocument()
	assert.True(t, errors.IsSchemaNotSubmitted(err))

	require.NoError(t, c.SubmitSchema(map[string]any{
		"name": map[string]any{"type": "string", "prompt": "legal name only"},
	}))

	example, err := c.ExampleDocument()
	require.NoError(t, err)
	assert.Contains(t, example, `"name": "text"`)

	instructions, err := c.FieldInstructions()
	require.NoError(t, err)
	assert.Contains(t, instructions, "name: legal name only")
}

func TestAddFieldAndRegisterType(t *testing.T) {
	c := newTestClient(t)
	c.RegisterType("timestamp", schema.TypeString)

	require.NoError(t, c.SubmitSchema(map[string]any{"name": "string", "when": "timestamp"}))
	require.NoError(t, c.AddField("Favorite Color", "string"))

	result, err := c.Reconcile(context.Background(), map[string]any{
		"favorite color": "green",
	})
	require.NoError(t, err)
	assert.Equal(t, "green", result.Matched["Favorite Color"])
}
