package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("care log", nil).StatusCode())
	assert.Equal(t, http.StatusConflict, AlreadyExists("duplicate", nil).StatusCode())
	assert.Equal(t, http.StatusConflict, Locked("locked").StatusCode())
	assert.Equal(t, http.StatusConflict, InvalidState("wrong state").StatusCode())
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad", nil).StatusCode())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized(nil).StatusCode())
	assert.Equal(t, http.StatusForbidden, Forbidden("no").StatusCode())
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom")).StatusCode())
}

func TestIs(t *testing.T) {
	err := NotFound("care log", nil)
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrAlreadyExists))
	assert.False(t, Is(errors.New("plain"), ErrNotFound))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row not found")
	err := NotFound("care log", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "care log")
}
