// Package categoria administra el catálogo de categorías: entradas simples
// con imagen y un estado visible/oculto, almacenadas con el mismo contrato
// de documento único con campo array que el resto de colecciones.
package categoria

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sivigila/solicitudes/internal/docstore"
	"github.com/sivigila/solicitudes/internal/storage"
	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

var (
	// ErrNotFound es devuelta cuando la categoría no existe.
	ErrNotFound = errors.New("categoría no encontrada")
)

const (
	docPath  = "categorias/categorias"
	docField = "categorias"
)

// Categoria es una entrada del catálogo.
type Categoria struct {
	ID        string         `json:"id" bson:"id"`
	Nombre    string         `json:"name" bson:"name"`
	Imagen    usuario.Imagen `json:"image" bson:"image"`
	Estado    bool           `json:"state" bson:"state"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

// Repository accede a la colección de categorías.
type Repository struct {
	store docstore.Store
	mut   *docstore.Mutator
}

// NewRepository crea el repositorio sobre el almacén de documentos.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store, mut: docstore.NewMutator(store)}
}

type categoriasDoc struct {
	Categorias []Categoria `json:"categorias" bson:"categorias"`
}

// List devuelve el catálogo completo.
func (r *Repository) List(ctx context.Context) ([]Categoria, error) {
	var doc categoriasDoc
	if err := r.store.Get(ctx, docPath, &doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Categorias, nil
}

// FindByID busca la entrada recorriendo el array.
func (r *Repository) FindByID(ctx context.Context, id string) (Categoria, error) {
	items, err := r.List(ctx)
	if err != nil {
		return Categoria{}, err
	}
	for _, c := range items {
		if c.ID == id {
			return c, nil
		}
	}
	return Categoria{}, ErrNotFound
}

// Append agrega la entrada, creando el documento si no existe.
func (r *Repository) Append(ctx context.Context, c Categoria) error {
	return r.mut.Append(ctx, docPath, docField, c)
}

// Replace sustituye la versión anterior por la actualizada.
func (r *Repository) Replace(ctx context.Context, old, updated Categoria) error {
	return r.mut.Replace(ctx, docPath, docField, old, updated)
}

// Remove elimina la entrada del catálogo.
func (r *Repository) Remove(ctx context.Context, c Categoria) error {
	return r.mut.Remove(ctx, docPath, docField, c)
}

// Service reúne las reglas del catálogo. Todas las mutaciones son
// exclusivas del administrador; la capa HTTP lo garantiza.
type Service struct {
	repo  *Repository
	blobs storage.BlobStore
}

// NewService crea una nueva instancia del servicio.
func NewService(repo *Repository, blobs storage.BlobStore) *Service {
	return &Service{repo: repo, blobs: blobs}
}

// CrearInput encapsula los campos del alta de categoría.
type CrearInput struct {
	Nombre        string
	ImagenDataURL string
}

// Crear agrega una entrada visible al catálogo.
func (s *Service) Crear(ctx context.Context, in CrearInput) (*Categoria, error) {
	if err := util.RequireString(in.Nombre, "name"); err != nil {
		return nil, err
	}

	c := Categoria{
		ID:        util.NewID(),
		Nombre:    in.Nombre,
		Estado:    true,
		CreatedAt: time.Now().UTC(),
	}

	if in.ImagenDataURL != "" {
		imagen, err := s.subirImagen(ctx, c.ID, in.ImagenDataURL)
		if err != nil {
			return nil, err
		}
		c.Imagen = imagen
	}

	if err := s.repo.Append(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Listar devuelve el catálogo completo.
func (s *Service) Listar(ctx context.Context) ([]Categoria, error) {
	return s.repo.List(ctx)
}

// Actualizar reescribe nombre e imagen de la entrada.
func (s *Service) Actualizar(ctx context.Context, id, nombre, imagenDataURL string) (*Categoria, error) {
	actual, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := util.RequireString(nombre, "name"); err != nil {
		return nil, err
	}

	editada := actual
	editada.Nombre = nombre

	if imagenDataURL != "" {
		imagen, err := s.subirImagen(ctx, id, imagenDataURL)
		if err != nil {
			return nil, err
		}
		editada.Imagen = imagen
	}

	if err := s.repo.Replace(ctx, actual, editada); err != nil {
		return nil, err
	}
	return &editada, nil
}

// CambiarEstado alterna la visibilidad de la entrada.
func (s *Service) CambiarEstado(ctx context.Context, id string, estado bool) (*Categoria, error) {
	actual, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	editada := actual
	editada.Estado = estado

	if err := s.repo.Replace(ctx, actual, editada); err != nil {
		return nil, err
	}
	return &editada, nil
}

// Eliminar quita la entrada y borra su imagen del blobstore.
func (s *Service) Eliminar(ctx context.Context, id string) error {
	actual, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Remove(ctx, actual); err != nil {
		return err
	}
	if actual.Imagen.Path != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, actual.Imagen.Path); err != nil {
			log.Warn().Err(err).Str("path", actual.Imagen.Path).Msg("no se pudo eliminar la imagen de la categoría")
		}
	}
	return nil
}

func (s *Service) subirImagen(ctx context.Context, id, dataURL string) (usuario.Imagen, error) {
	contentType, body, err := storage.DecodeDataURL(dataURL)
	if err != nil {
		return usuario.Imagen{}, err
	}

	key := "categorias/" + id
	res, err := s.blobs.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return usuario.Imagen{}, err
	}
	return usuario.Imagen{Path: key, URL: res.URL}, nil
}
