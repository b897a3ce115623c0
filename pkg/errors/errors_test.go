package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/careloop/medvisit/pkg/errors"
)

func TestAppError(t *testing.T) {
	t.Run("message includes type and wrapped cause", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := apperrors.NewTransportError("text generation failed", cause)

		assert.Equal(t, "TRANSPORT: text generation failed: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("message without cause", func(t *testing.T) {
		err := apperrors.NewInvalidTaskError("unknown workflow task: summarize")
		assert.Equal(t, "INVALID_TASK: unknown workflow task: summarize", err.Error())
	})
}

func TestIsType(t *testing.T) {
	t.Run("matches the error's type", func(t *testing.T) {
		err := apperrors.NewNoPriorHistoryError("no symptoms on file")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNoPriorHistory))
		assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
	})

	t.Run("sees through wrapping", func(t *testing.T) {
		err := fmt.Errorf("visit failed: %w", apperrors.NewTransportError("generation failed", nil))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
	})

	t.Run("plain errors match nothing", func(t *testing.T) {
		assert.False(t, apperrors.IsType(stderrors.New("plain"), apperrors.ErrorTypeInternal))
		assert.False(t, apperrors.IsType(nil, apperrors.ErrorTypeInternal))
	})
}
