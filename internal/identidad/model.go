package identidad

import (
	"errors"
	"time"
)

var (
	// ErrNotFound es devuelto cuando la identidad no existe.
	ErrNotFound = errors.New("identidad no encontrada")
	// ErrEmailEnUso indica que ya existe una identidad con ese correo.
	ErrEmailEnUso = errors.New("el correo ya está registrado")
)

// Identidad es el registro de autenticación de una cuenta. Se crea una vez
// al dar de alta la cuenta y nunca se elimina físicamente; la baja de un
// usuario borra solo su perfil.
type Identidad struct {
	UID        string    `json:"uid" bson:"uid"`
	Email      string    `json:"email" bson:"email"`
	Hash       string    `json:"passwordHash" bson:"passwordHash"`
	Verificada bool      `json:"emailVerified" bson:"emailVerified"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
