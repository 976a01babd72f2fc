package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSold = New(http.StatusConflict, "sold out")

func TestWithCause_StillMatchesSentinel(t *testing.T) {
	cause := errors.New("row locked")
	err := fmt.Errorf("reserve: %w", errSold.WithCause(cause))

	assert.ErrorIs(t, err, errSold)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sold out", errSold.WithCause(cause).Error())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusOf(errSold, 500))
	assert.Equal(t, 500, StatusOf(errors.New("boom"), 500))
}

func TestIs_DifferentMessage(t *testing.T) {
	other := New(http.StatusConflict, "other")
	assert.NotErrorIs(t, other, errSold)
}
