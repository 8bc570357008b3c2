package util

import (
	"net/mail"
	"strings"
)

// ValidationError describe una falla de validación ligada a un campo, para
// que la capa de presentación pueda mostrarla junto al campo correspondiente.
type ValidationError struct {
	Campo   string
	Mensaje string
}

func (e *ValidationError) Error() string {
	return e.Campo + ": " + e.Mensaje
}

// ValidateEmail retorna error para correos inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Campo: "email", Mensaje: "email obligatorio"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Campo: "email", Mensaje: "email inválido"}
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de contraseña.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Campo: "password", Mensaje: "la contraseña debe tener al menos 8 caracteres"}
	}
	return nil
}

// RequireString garantiza cadena no vacía.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Campo: field, Mensaje: field + " obligatorio"}
	}
	return nil
}
