package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	UserType string `validate:"omitempty,oneof=user student expert"`
	Rating   int    `validate:"max=5"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(registerPayload{Email: "nope", Password: "abc", UserType: "admin", Rating: 9})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "Email must be a valid email")
	assert.Contains(t, msg, "Password must be at least 6 characters")
	assert.Contains(t, msg, "User type must be one of: user student expert")
	assert.Contains(t, msg, "Rating must be at most 5")
}

func TestFormatValidationErrorRequired(t *testing.T) {
	err := validator.New().Struct(registerPayload{})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "Email is required")
	assert.Contains(t, msg, "Password is required")
}

func TestFormatValidationErrorNonValidation(t *testing.T) {
	assert.Equal(t, "Invalid request body", FormatValidationError(errors.New("unexpected EOF")))
}
