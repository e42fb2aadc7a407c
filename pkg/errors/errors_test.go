package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSlotUnavailable, KindOf(SlotUnavailable()))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("while booking: %w", DoctorUnavailable())
	assert.Equal(t, KindDoctorUnavailable, KindOf(err))
	assert.True(t, IsKind(err, KindDoctorUnavailable))
	assert.False(t, IsKind(err, KindValidation))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(KindInternal, "db query failed", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "db query failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIllegalTransitionMessage(t *testing.T) {
	err := IllegalTransition("Completed", "Cancelled")
	assert.Equal(t, KindIllegalTransition, err.Kind)
	assert.Contains(t, err.Message, "Completed")
	assert.Contains(t, err.Message, "Cancelled")
}
