package usuario

import (
	"context"
	"errors"
	"strings"

	"github.com/sivigila/solicitudes/internal/docstore"
)

const (
	docPath  = "usuarios/users"
	docField = "users"
)

// Repository accede a la colección de perfiles: un único documento cuyo
// campo `users` es el array de todos los usuarios.
type Repository struct {
	store docstore.Store
	mut   *docstore.Mutator
}

// NewRepository crea el repositorio sobre el almacén de documentos.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, mut: docstore.NewMutator(store)}
}

type usersDoc struct {
	Users []Usuario `json:"users" bson:"users"`
}

// List devuelve todos los perfiles. Una colección aún no creada se trata
// como vacía.
func (r *Repository) List(ctx context.Context) ([]Usuario, error) {
	var doc usersDoc
	if err := r.store.Get(ctx, docPath, &doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Users, nil
}

// FindByUID busca el perfil recorriendo el array del documento.
func (r *Repository) FindByUID(ctx context.Context, uid string) (Usuario, error) {
	users, err := r.List(ctx)
	if err != nil {
		return Usuario{}, err
	}
	for _, u := range users {
		if u.UID == uid {
			return u, nil
		}
	}
	return Usuario{}, ErrNotFound
}

// FindByEmail busca el perfil por correo (insensible a mayúsculas).
func (r *Repository) FindByEmail(ctx context.Context, email string) (Usuario, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := r.List(ctx)
	if err != nil {
		return Usuario{}, err
	}
	for _, u := range users {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return Usuario{}, ErrNotFound
}

// ListByRol devuelve los perfiles con el rol dado.
func (r *Repository) ListByRol(ctx context.Context, rol Rol) ([]Usuario, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []Usuario
	for _, u := range users {
		if u.Rol == rol {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// Append agrega el perfil al array, creando el documento si es la primera vez.
func (r *Repository) Append(ctx context.Context, u Usuario) error {
	return r.mut.Append(ctx, docPath, docField, u)
}

// Replace sustituye la versión anterior del perfil por la actualizada.
func (r *Repository) Replace(ctx context.Context, old, updated Usuario) error {
	return r.mut.Replace(ctx, docPath, docField, old, updated)
}

// Remove elimina el perfil del array. La identidad de autenticación nunca
// se borra, solo el perfil.
func (r *Repository) Remove(ctx context.Context, u Usuario) error {
	return r.mut.Remove(ctx, docPath, docField, u)
}
