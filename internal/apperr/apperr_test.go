package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	v := Validation("Participant not in group")
	n := NotFound("Group not found")

	assert.True(t, IsValidation(v))
	assert.False(t, IsNotFound(v))
	assert.True(t, IsNotFound(n))
	assert.False(t, IsValidation(n))

	wrapped := fmt.Errorf("create expense: %w", v)
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "Participant not in group", Message(wrapped))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestValidationf(t *testing.T) {
	err := Validationf("Split missing for user %s", "u1")
	assert.Equal(t, "Split missing for user u1", err.Error())
}
