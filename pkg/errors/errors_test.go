package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NotFound("patient", nil)))
	assert.Equal(t, ErrDuplicateBooking, CodeOf(DuplicateBooking("slot taken")))
	assert.Equal(t, ErrParseFailure, CodeOf(ParseFailure("bad date", nil)))
	assert.Equal(t, ErrConflict, CodeOf(Conflict("already resolved")))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("appointment", nil))
	assert.Equal(t, ErrNotFound, CodeOf(err))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
}

func TestErrorMessage(t *testing.T) {
	err := ParseFailure("bad date", stderrors.New("cannot parse"))
	assert.Contains(t, err.Error(), "bad date")
	assert.Contains(t, err.Error(), "cannot parse")

	bare := Conflict("already cancelled")
	assert.Equal(t, "already cancelled", bare.Error())
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("cause")
	err := BadRequest("invalid payload", inner)
	assert.ErrorIs(t, err, inner)
}
