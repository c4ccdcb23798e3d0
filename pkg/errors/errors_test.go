package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorCollapsesUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("pq: relation does not exist"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
}

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", Clone(ErrNotConfigured, "set up the qualification field first"))
	appErr := FromError(wrapped)
	assert.Equal(t, "NOT_CONFIGURED", appErr.Code)
	assert.Equal(t, http.StatusPreconditionFailed, appErr.Status)
}

func TestIsMatchesByCode(t *testing.T) {
	cloned := Clone(ErrNotConnected, "token expired")
	assert.True(t, errors.Is(cloned, ErrNotConnected))
	assert.False(t, errors.Is(cloned, ErrNotConfigured))
	assert.True(t, errors.Is(Wrap(errors.New("boom"), ErrInternal.Code, 500, "x"), ErrInternal))
}
