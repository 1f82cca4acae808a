package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := Forbidden("cannot approve a transaction you created")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "cannot approve a transaction you created", err.Error())

	wrapped := fmt.Errorf("approve: %w", err)
	assert.ErrorIs(t, wrapped, ErrForbidden)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindForbidden, kind)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestWithDetails(t *testing.T) {
	base := Validation("invalid request")
	withDetails := WithDetails(base, []string{"amount"})

	var e *Error
	assert.True(t, errors.As(withDetails, &e))
	assert.Equal(t, []string{"amount"}, e.Details)
	assert.ErrorIs(t, withDetails, ErrValidation)

	var orig *Error
	assert.True(t, errors.As(base, &orig))
	assert.Nil(t, orig.Details)

	plain := errors.New("x")
	assert.Same(t, plain, WithDetails(plain, 1))
}
