package docstore

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound es devuelto cuando el documento no existe.
	ErrNotFound = errors.New("documento no encontrado")
	// ErrInvalidPath indica una ruta que no tiene la forma coleccion/documento.
	ErrInvalidPath = errors.New("ruta de documento inválida")
)

// Store define las operaciones de documento que consume el dominio.
// Las rutas tienen siempre dos segmentos: coleccion/documento.
type Store interface {
	// Get decodifica el documento completo en out. Devuelve ErrNotFound si no existe.
	Get(ctx context.Context, path string, out any) error
	// Set sobreescribe el documento completo, creándolo si no existe.
	Set(ctx context.Context, path string, value any) error
	// Update aplica una actualización parcial campo a campo.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Exists informa si el documento está presente.
	Exists(ctx context.Context, path string) (bool, error)
	// AddToArray agrega un elemento al campo array del documento.
	AddToArray(ctx context.Context, path, field string, value any) error
	// RemoveFromArray elimina el elemento que coincida por valor completo.
	// removed indica si algún elemento fue efectivamente eliminado.
	RemoveFromArray(ctx context.Context, path, field string, value any) (removed bool, err error)
}

// SplitPath separa la ruta en colección y documento.
func SplitPath(path string) (collection, document string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidPath
	}
	return parts[0], parts[1], nil
}
