package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeNotFound, "participant not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("compose: %w", New(CodeValidation, "contact name is required"))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeStorage, CodeOf(Wrap(errors.New("disk full"), CodeStorage, "failed to write document")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(cause, CodeStorage, "failed to read document")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to read document", MessageOf(err))
	assert.Equal(t, "internal error", MessageOf(cause))
	assert.Contains(t, err.Error(), "permission denied")
}
