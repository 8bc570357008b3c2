package solicitud

import (
	"context"
	"errors"

	"github.com/sivigila/solicitudes/internal/docstore"
)

const (
	docPath  = "solicitudes/solicitudes"
	docField = "solicitudes"
)

// Repository accede a la colección de solicitudes: un único documento cuyo
// campo `solicitudes` es el array de todas las solicitudes. El documento es
// la unidad de contención aunque el elemento sea la unidad de significado.
type Repository struct {
	store docstore.Store
	mut   *docstore.Mutator
}

// NewRepository crea el repositorio sobre el almacén de documentos.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, mut: docstore.NewMutator(store)}
}

type solicitudesDoc struct {
	Solicitudes []Solicitud `json:"solicitudes" bson:"solicitudes"`
}

// List trae el documento completo y devuelve el array. La colección aún no
// creada se trata como vacía.
func (r *Repository) List(ctx context.Context) ([]Solicitud, error) {
	var doc solicitudesDoc
	if err := r.store.Get(ctx, docPath, &doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Solicitudes, nil
}

// FindByUID busca la solicitud recorriendo el array del documento.
func (r *Repository) FindByUID(ctx context.Context, uid string) (Solicitud, error) {
	items, err := r.List(ctx)
	if err != nil {
		return Solicitud{}, err
	}
	for _, s := range items {
		if s.UID == uid {
			return s, nil
		}
	}
	return Solicitud{}, ErrNotFound
}

// Append agrega la solicitud al array, creando el documento si no existe.
func (r *Repository) Append(ctx context.Context, s Solicitud) error {
	return r.mut.Append(ctx, docPath, docField, s)
}

// Replace sustituye la versión anterior por la actualizada mediante el
// protocolo eliminar-viejo/agregar-nuevo.
func (r *Repository) Replace(ctx context.Context, old, updated Solicitud) error {
	return r.mut.Replace(ctx, docPath, docField, old, updated)
}

// Remove elimina la solicitud del array sin contraparte de inserción.
func (r *Repository) Remove(ctx context.Context, s Solicitud) error {
	return r.mut.Remove(ctx, docPath, docField, s)
}
