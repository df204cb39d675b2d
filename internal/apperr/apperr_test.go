package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"nagarneuron/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"not found", apperr.NotFound("complaint %s not found", "NN1"), apperr.KindNotFound},
		{"validation", apperr.Validation("bad status", nil), apperr.KindValidation},
		{"wrapped validation", fmt.Errorf("handler: %w", apperr.Validation("bad", nil)), apperr.KindValidation},
		{"plain error", errors.New("boom"), apperr.KindInternal},
		{"internal", apperr.Internal(errors.New("db down")), apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Internal(cause)

	assert.Equal(t, "internal error", err.Message)
	assert.ErrorIs(t, err, cause, "cause must stay reachable for logging")
}

func TestNotFoundMessage(t *testing.T) {
	err := apperr.NotFound("complaint %s not found", "NNX")
	assert.Equal(t, "complaint NNX not found", err.Error())
	assert.True(t, apperr.IsNotFound(err))
	assert.False(t, apperr.IsValidation(err))
}
