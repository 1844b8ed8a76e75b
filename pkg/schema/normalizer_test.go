package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
)

func TestSubmitShorthandMap(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{
		"Name":           "string",
		"Age (years)":    "int",
		"Contact Number": "str",
		"score":          "float",
		"active":         "bool",
	})
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, TypeString, s.ExpectedType("name"))
	assert.Equal(t, TypeInteger, s.ExpectedType("age"))
	assert.Equal(t, TypeString, s.ExpectedType("contact_number"))
	assert.Equal(t, TypeNumber, s.ExpectedType("score"))
	assert.Equal(t, TypeBoolean, s.ExpectedType("active"))

	// Reverse mapping kept the caller's spellings.
	assert.Equal(t, "Age (years)", s.Keys.Original("age"))
	assert.Equal(t, "Contact Number", s.Keys.Original("contact_number"))
}

func TestSubmitJSONText(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit(`{"name": "string", "tags": {"type": "list", "items": "string"}}`)
	require.NoError(t, err)

	assert.Equal(t, TypeList, n.ExpectedType("tags"))
	assert.Equal(t, TypeString, n.ExpectedType("tags.items"))
}

func TestSubmitYAMLText(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit("name: string\nage: integer\n")
	require.NoError(t, err)
	assert.Equal(t, TypeInteger, n.ExpectedType("age"))
}

func TestSubmitDetailedFields(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{
		"name": map[string]any{
			"type":   "string",
			"prompt": "the person's full legal name",
		},
		"address": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"street": "string",
				"zip":    "string",
			},
			"required": []any{"street"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, TypeObject, s.ExpectedType("address"))
	assert.Equal(t, TypeString, s.ExpectedType("address.street"))

	field := s.Lookup("name")
	require.NotNil(t, field)
	assert.Equal(t, "the person's full legal name", field.Prompt)
}

func TestSubmitNestedShorthandObject(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	// A map without a "type" key is an object properties shorthand.
	_, err := n.Submit(map[string]any{
		"company": map[string]any{
			"name":    "string",
			"founded": "integer",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, TypeObject, n.ExpectedType("company"))
	assert.Equal(t, TypeInteger, n.ExpectedType("company.founded"))
}

func TestSubmitHostTypes(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit(map[string]any{
		"count": 0,
		"ratio": 0.5,
		"open":  false,
	})
	require.NoError(t, err)

	assert.Equal(t, TypeInteger, n.ExpectedType("count"))
	assert.Equal(t, TypeNumber, n.ExpectedType("ratio"))
	assert.Equal(t, TypeBoolean, n.ExpectedType("open"))
}

func TestSubmitRejectsUnknownToken(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit(map[string]any{"when": "timestamp"})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
	assert.False(t, n.Submitted())
}

func TestSubmitRejectsGarbageText(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit("{{{not json or yaml")
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestSubmitRejectsNil(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit(nil)
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestRegisterTypeExtendsTable(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))
	n.RegisterType("timestamp", TypeString)

	_, err := n.Submit(map[string]any{"when": "timestamp"})
	require.NoError(t, err)
	assert.Equal(t, TypeString, n.ExpectedType("when"))
}

func TestAddField(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	require.Error(t, n.AddField("extra", "string"), "before submission")

	_, err := n.Submit(map[string]any{"name": "string"})
	require.NoError(t, err)

	require.NoError(t, n.AddField("Favorite Color", "string"))
	assert.Equal(t, TypeString, n.ExpectedType("favorite_color"))
	assert.Equal(t, "Favorite Color", n.Schema().Keys.Original("favorite_color"))
}

func TestAddFieldLeavesPriorSchemaUntouched(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit(map[string]any{"name": "string"})
	require.NoError(t, err)

	// A request in flight keeps reading the schema it started with.
	before := n.Schema()
	require.NoError(t, n.AddField("Favorite Color", "string"))

	assert.NotContains(t, before.Root.Properties, "favorite_color")
	assert.NotContains(t, before.Original, "Favorite Color")

	after := n.Schema()
	assert.NotSame(t, before, after)
	assert.Equal(t, TypeString, after.ExpectedType("favorite_color"))
	assert.Equal(t, TypeString, after.ExpectedType("name"))
}

func TestSubmitReplacesSchema(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	_, err := n.Submit(map[string]any{"name": "string"})
	require.NoError(t, err)
	_, err = n.Submit(map[string]any{"age": "integer"})
	require.NoError(t, err)

	assert.Equal(t, TypeUndefined, n.ExpectedType("name"))
	assert.Equal(t, TypeInteger, n.ExpectedType("age"))
}

func TestGenerateExample(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{
		"Full Name": "string",
		"Age":       "integer",
		"tags":      map[string]any{"type": "list", "items": "string"},
	})
	require.NoError(t, err)

	example, err := s.GenerateExample()
	require.NoError(t, err)

	assert.Contains(t, example, `"Full Name": "text"`)
	assert.Contains(t, example, `"Age": 123`)
	assert.Contains(t, example, `"text"`)
}

func TestFieldInstructions(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{
		"name": map[string]any{"type": "string", "prompt": "use the legal name"},
		"address": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"zip": map[string]any{"type": "string", "description": "five digits"},
			},
		},
	})
	require.NoError(t, err)

	instructions := s.FieldInstructions()
	assert.Contains(t, instructions, "name: use the legal name")
	assert.Contains(t, instructions, "address.zip: five digits")
}

func TestValidateData(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{"name": "string", "age": "integer"})
	require.NoError(t, err)

	assert.NoError(t, s.ValidateData(map[string]any{"name": "Ada", "age": 36}))

	err = s.ValidateData(map[string]any{"name": 42})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestValidateDataOriginalSpellings(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Full Name": "string",
			"Age (years)": map[string]any{
				"type": "integer",
			},
		},
		"required": []any{"Full Name"},
	})
	require.NoError(t, err)

	// Documents arrive keyed by the caller's spellings; validation must see
	// them as the canonical keys the compiled schema declares.
	assert.NoError(t, s.ValidateData(map[string]any{
		"Full Name":   "Ada",
		"Age (years)": 36,
	}))
	assert.NoError(t, s.ValidateData(map[string]any{
		"full_name": "Ada",
	}))

	err = s.ValidateData(map[string]any{"Age (years)": 36})
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}

func TestCanonicalKeysAllLevels(t *testing.T) {
	n := NewNormalizer(WithLogger(logging.Nop))

	s, err := n.Submit(map[string]any{
		"name": "string",
		"address": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"street": "string",
			},
		},
	})
	require.NoError(t, err)

	keys := s.CanonicalKeys()
	assert.ElementsMatch(t, []string{"name", "address", "street"}, keys)
}
