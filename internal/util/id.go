package util

import "github.com/google/uuid"

// NewID genera un identificador opaco (UUID v4) para nuevos registros.
func NewID() string {
	return uuid.NewString()
}
