package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := New(InvalidInput, "window must be positive")
	assert.Contains(t, e.Error(), "InvalidInput")
	assert.Contains(t, e.Error(), "window must be positive")

	withCtx := e.WithContext("rolling(window=0)")
	assert.Contains(t, withCtx.Error(), "rolling(window=0)")
	// original is untouched
	assert.NotContains(t, e.Error(), "rolling(window=0)")
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(CalculationError, "gibbs sampler diverged", cause)
	require.ErrorIs(t, e, cause)
}

func TestResultOf(t *testing.T) {
	okRes := Of(42, error(nil))
	require.True(t, okRes.IsOk())
	v, err := okRes.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	errRes := Of(0, New(InsufficientData, "empty series"))
	require.False(t, errRes.IsOk())
	_, err = errRes.Unwrap()
	require.Error(t, err)
}

func TestResultMustPanicsOnErr(t *testing.T) {
	r := Err[int](New(MissingData, "no such timestamp"))
	assert.Panics(t, func() { r.Must() })
}
