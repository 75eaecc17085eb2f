package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("Name", "El nombre es obligatorio")

	assert.Equal(t, "validation failed: Name - El nombre es obligatorio", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())

	noField := NewValidationError("", "bad input")
	assert.Equal(t, "validation failed: bad input", noField.Error())
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("user", "Usuario no encontrado")
	assert.Equal(t, "Usuario no encontrado", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())

	bare := NewNotFoundError("user", "")
	assert.Equal(t, "user not found", bare.Error())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", NewValidationError("Email", "El email es obligatorio"), http.StatusBadRequest},
		{"not found", NewNotFoundError("user", ""), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("update: %w", NewNotFoundError("user", "")), http.StatusNotFound},
		{"unclassified", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}
