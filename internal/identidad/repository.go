package identidad

import (
	"context"
	"errors"
	"strings"

	"github.com/sivigila/solicitudes/internal/docstore"
)

const (
	docPath  = "identidades/identidades"
	docField = "identidades"
)

// Repository accede a la colección de identidades, con la misma forma de
// documento único con campo array que el resto de colecciones.
type Repository struct {
	store docstore.Store
	mut   *docstore.Mutator
}

// NewRepository crea el repositorio sobre el almacén de documentos.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, mut: docstore.NewMutator(store)}
}

type identidadesDoc struct {
	Identidades []Identidad `json:"identidades" bson:"identidades"`
}

// List devuelve todas las identidades.
func (r *Repository) List(ctx context.Context) ([]Identidad, error) {
	var doc identidadesDoc
	if err := r.store.Get(ctx, docPath, &doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Identidades, nil
}

// FindByEmail busca la identidad por correo (insensible a mayúsculas).
func (r *Repository) FindByEmail(ctx context.Context, email string) (Identidad, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	items, err := r.List(ctx)
	if err != nil {
		return Identidad{}, err
	}
	for _, id := range items {
		if strings.ToLower(id.Email) == email {
			return id, nil
		}
	}
	return Identidad{}, ErrNotFound
}

// FindByUID busca la identidad por identificador.
func (r *Repository) FindByUID(ctx context.Context, uid string) (Identidad, error) {
	items, err := r.List(ctx)
	if err != nil {
		return Identidad{}, err
	}
	for _, id := range items {
		if id.UID == uid {
			return id, nil
		}
	}
	return Identidad{}, ErrNotFound
}

// Append agrega la identidad, creando el documento si es la primera cuenta.
func (r *Repository) Append(ctx context.Context, id Identidad) error {
	return r.mut.Append(ctx, docPath, docField, id)
}

// Replace sustituye la versión anterior de la identidad.
func (r *Repository) Replace(ctx context.Context, old, updated Identidad) error {
	return r.mut.Replace(ctx, docPath, docField, old, updated)
}
