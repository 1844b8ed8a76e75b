package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/jsonmend/jsonmend/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestSchemaError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewSchemaError("address.zip", "unknown type token", nil)
		assert.Equal(t, "invalid schema at field address.zip: unknown type token", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidSchema))
		assert.True(t, pkgerrors.IsSchemaError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := pkgerrors.NewSchemaError("", "schema is nil", nil)
		assert.Equal(t, "invalid schema: schema is nil", err.Error())
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := pkgerrors.New("bad yaml")
		err := pkgerrors.NewSchemaError("", "not decodable", cause)
		assert.Equal(t, cause, errors.Unwrap(err))
	})
}

func TestCoercionError(t *testing.T) {
	err := pkgerrors.NewCoercionError("age", "forty-ish", "integer", nil)
	assert.Equal(t, "cannot coerce value at age to integer: forty-ish", err.Error())

	var ce *pkgerrors.CoercionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "age", ce.Path)
	assert.Equal(t, "forty-ish", ce.Value)
}

func TestTransportError(t *testing.T) {
	t.Run("rate limit maps to sentinel", func(t *testing.T) {
		err := pkgerrors.NewTransportError("openai", 429, "too many requests", nil)
		assert.Equal(t, "transport error from openai (status 429): too many requests", err.Error())
		assert.True(t, pkgerrors.IsRateLimited(err))
		assert.True(t, pkgerrors.IsRetryable(err))
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		err := pkgerrors.NewTransportError("gemini", 503, "overloaded", nil)
		assert.True(t, errors.Is(err, pkgerrors.ErrResponderUnavailable))
		assert.True(t, pkgerrors.IsRetryable(err))
	})

	t.Run("client error is not retryable", func(t *testing.T) {
		err := pkgerrors.NewTransportError("openai", 400, "bad request", nil)
		assert.False(t, errors.Is(err, pkgerrors.ErrRateLimited))
		assert.False(t, errors.Is(err, pkgerrors.ErrResponderUnavailable))
		assert.False(t, pkgerrors.IsRetryable(err))
	})

	t.Run("no status code", func(t *testing.T) {
		err := pkgerrors.NewTransportError("gemini", 0, "connection refused", nil)
		assert.Equal(t, "transport error from gemini: connection refused", err.Error())
	})

	t.Run("wrap helper", func(t *testing.T) {
		cause := pkgerrors.New("dial tcp: refused")
		err := pkgerrors.WrapTransport("gemini", 0, cause)
		var te *pkgerrors.TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "gemini", te.Backend)
		assert.Equal(t, cause, errors.Unwrap(err))

		assert.NoError(t, pkgerrors.WrapTransport("gemini", 0, nil))
	})
}

func TestInferenceError(t *testing.T) {
	cause := pkgerrors.New("backend closed")
	err := pkgerrors.NewInferenceError("contact_number", cause)
	assert.Equal(t, `embedding inference failed for key "contact_number": backend closed`, err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrInferenceFailed))
	assert.True(t, pkgerrors.IsInferenceFailure(err))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestParseError(t *testing.T) {
	cause := pkgerrors.New("unexpected token")
	err := pkgerrors.WrapParse("yaml", cause)
	assert.Equal(t, "yaml parse error: unexpected token", err.Error())

	var pe *pkgerrors.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "yaml", pe.Format)

	assert.NoError(t, pkgerrors.WrapParse("yaml", nil))
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("openai", "no API key configured", pkgerrors.ErrAPIKeyRequired)
	assert.Equal(t, "configuration error in openai: no API key configured", err.Error())
	assert.True(t, errors.Is(err, pkgerrors.ErrAPIKeyRequired))
}

func TestRetryableSentinels(t *testing.T) {
	assert.True(t, pkgerrors.IsRetryable(pkgerrors.ErrTimeout))
	assert.True(t, pkgerrors.IsRetryable(pkgerrors.ErrInvalidJSON))
	assert.True(t, pkgerrors.IsTimeout(pkgerrors.ErrTimeout))
	assert.True(t, pkgerrors.IsInvalidJSON(pkgerrors.ErrInvalidJSON))
	assert.False(t, pkgerrors.IsRetryable(pkgerrors.ErrAPIKeyRequired))
	assert.False(t, pkgerrors.IsRetryable(pkgerrors.ErrSchemaNotSubmitted))
	assert.True(t, pkgerrors.IsSchemaNotSubmitted(pkgerrors.ErrSchemaNotSubmitted))
}
