package usuario

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound es devuelto cuando el perfil no existe en la colección.
	ErrNotFound = errors.New("usuario no encontrado")
	// ErrRolInvalido indica un rol fuera de la enumeración canónica.
	ErrRolInvalido = errors.New("rol inválido")
	// ErrUnidadInvalida indica un tipo de unidad desconocido.
	ErrUnidadInvalida = errors.New("tipo de unidad inválido")
)

// Rol es la enumeración canónica de papeles del sistema.
type Rol string

const (
	RolAdministrador Rol = "ADMINISTRADOR"
	RolReferente     Rol = "REFERENTE"
	RolSolicitante   Rol = "SOLICITANTE"
)

// Tipos de unidad organizacional.
const (
	UnidadUI   = "UI"
	UnidadUPGD = "UPGD"
)

// ParseRol normaliza el rol, aceptando las grafías históricas que quedaron
// en datos viejos (ADMIN, OPERARIO, USUARIO) y mapeándolas a la
// enumeración canónica.
func ParseRol(raw string) (Rol, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ADMINISTRADOR", "ADMIN":
		return RolAdministrador, nil
	case "REFERENTE", "OPERARIO":
		return RolReferente, nil
	case "SOLICITANTE", "USUARIO":
		return RolSolicitante, nil
	default:
		return "", ErrRolInvalido
	}
}

// Imagen es el par ruta/URL de la foto de perfil. Ambos campos se
// actualizan siempre juntos: la ruta es la clave en el almacén de blobs y
// la URL su dirección pública resuelta.
type Imagen struct {
	Path string `json:"path" bson:"path"`
	URL  string `json:"url" bson:"url"`
}

// Entidad es la unidad organizacional a la que pertenece el usuario.
type Entidad struct {
	ID     string `json:"id" bson:"id"`
	Nombre string `json:"name" bson:"name"`
	Tipo   string `json:"type" bson:"type"`
}

// Usuario es el perfil de dominio almacenado en el array de la colección
// usuarios/users.
type Usuario struct {
	UID       string    `json:"uid" bson:"uid"`
	Nombre    string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Telefono  string    `json:"phone" bson:"phone"`
	Unidad    Entidad   `json:"unit" bson:"unit"`
	Rol       Rol       `json:"role" bson:"role"`
	Estado    bool      `json:"state" bson:"state"`
	Imagen    Imagen    `json:"image" bson:"image"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Activo indica si el usuario puede operar sobre el sistema.
func (u Usuario) Activo() bool {
	return u.Estado
}

// ValidarUnidad acepta solo los tipos de unidad conocidos.
func ValidarUnidad(tipo string) error {
	switch strings.ToUpper(strings.TrimSpace(tipo)) {
	case UnidadUI, UnidadUPGD:
		return nil
	default:
		return ErrUnidadInvalida
	}
}
