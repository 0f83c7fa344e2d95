package failure_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapMatchesKindAndCause(t *testing.T) {
	cause := errors.New("execution reverted")
	err := failure.Wrap(failure.ErrUnauthorized, "mint", cause, "only verified artisans can mint")

	require.ErrorIs(t, err, failure.ErrUnauthorized)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, failure.ErrNotFound)
	assert.Equal(t, "mint: only verified artisans can mint: execution reverted", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, failure.Wrap(failure.ErrLedger, "op", nil, "msg"))
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("failed to list: %w", failure.New(failure.ErrNotFound, "artisan", "artisan not registered"))
	assert.Equal(t, failure.ErrNotFound, failure.KindOf(err))

	assert.Equal(t, failure.ErrNotConnected, failure.KindOf(fmt.Errorf("x: %w", failure.ErrNotConnected)))
	assert.Nil(t, failure.KindOf(errors.New("plain")))
	assert.Nil(t, failure.KindOf(nil))
}

func TestMessage(t *testing.T) {
	err := failure.New(failure.ErrNotFound, "artisan", "artisan not registered")
	assert.Equal(t, "artisan not registered", failure.Message(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "plain", failure.Message(errors.New("plain")))

	assert.Equal(t, "op: not found", failure.New(failure.ErrNotFound, "op", "").Error())
}
