package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("modify date: %w", New(Protected, ErrProtectedDate, "05/05/2025"))

	assert.Equal(t, Protected, KindOf(err))
	assert.Equal(t, "05/05/2025", SubjectOf(err))
	assert.True(t, errors.Is(err, ErrProtectedDate))
	assert.False(t, errors.Is(err, ErrDuplicateDate))
	assert.Equal(t, "modify date: date has recorded attendance: 05/05/2025", err.Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("boom")))
	assert.Equal(t, "", SubjectOf(errors.New("boom")))
	assert.Nil(t, FieldsOf(nil))
}

func TestValidationFields(t *testing.T) {
	err := NewValidation(ErrInvalidInput, "C1", FieldError{Field: "days", Error: "unknown weekday"})
	assert.Equal(t, Validation, KindOf(err))
	assert.Len(t, FieldsOf(err), 1)
	assert.Equal(t, "days", FieldsOf(err)[0].Field)
}
