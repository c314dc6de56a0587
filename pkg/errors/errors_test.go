package errors

import (
	"context"
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesStack(t *testing.T) {
	err := New(ErrorTypeValidation, "workers must be positive")

	assert.Equal(t, "validation: workers must be positive", err.Error())
	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0].Function, "TestNewCapturesStack")
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeNotFound, "unknown scenario %q", "alloc-st")
	assert.Equal(t, `not_found: unknown scenario "alloc-st"`, err.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "nothing"))

	err := Wrap(io.ErrUnexpectedEOF, ErrorTypeFile, "read config")
	assert.Equal(t, "file: read config: unexpected EOF", err.Error())
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))
}

func TestWrapKeepsInnerStack(t *testing.T) {
	inner := New(ErrorTypeValidation, "bad")
	outer := Wrap(inner, ErrorTypeConfig, "load")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, IsType(outer, ErrorTypeConfig))

	var unwrapped *Error
	require.True(t, stderrors.As(outer.Unwrap(), &unwrapped))
	assert.Equal(t, ErrorTypeValidation, unwrapped.Type)
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(nil, "x"))
	assert.True(t, IsType(FromContext(context.DeadlineExceeded, "x"), ErrorTypeTimeout))
	assert.True(t, IsType(FromContext(context.Canceled, "x"), ErrorTypeCanceled))
	assert.True(t, IsType(FromContext(io.EOF, "x"), ErrorTypeInternal))
}

func TestIsTypeOnPlainError(t *testing.T) {
	assert.False(t, IsType(io.EOF, ErrorTypeInternal))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeConfig, "bad value").
		WithDetail("field", "workers").
		WithDetail("value", 0)

	assert.Equal(t, map[string]interface{}{"field": "workers", "value": 0}, err.Details)
}
