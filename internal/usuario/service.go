package usuario

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sivigila/solicitudes/internal/identidad"
	"github.com/sivigila/solicitudes/internal/storage"
	"github.com/sivigila/solicitudes/internal/util"
)

type cuentaCreator interface {
	SignUp(ctx context.Context, email, password string) (*identidad.Identidad, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, uid string)
}

// Service reúne las reglas de negocio de perfiles de usuario. El alta es en
// dos pasos: primero se crea la identidad de autenticación y después se
// agrega el perfil al array de la colección.
type Service struct {
	repo    *Repository
	cuentas cuentaCreator
	blobs   storage.BlobStore
	cache   cacheInvalidator
}

// NewService crea una nueva instancia del servicio.
func NewService(repo *Repository, cuentas cuentaCreator, blobs storage.BlobStore, cache cacheInvalidator) *Service {
	return &Service{repo: repo, cuentas: cuentas, blobs: blobs, cache: cache}
}

// CrearInput encapsula los campos del alta de usuario.
type CrearInput struct {
	Nombre        string
	Email         string
	Password      string
	Telefono      string
	Unidad        Entidad
	Rol           string
	ImagenDataURL string
}

// ActualizarInput encapsula los campos editables del perfil.
type ActualizarInput struct {
	Nombre        string
	Telefono      string
	Unidad        Entidad
	Rol           string
	ImagenDataURL string
}

// Crear da de alta la cuenta: identidad primero, perfil después. Si el
// perfil trae imagen se sube al blobstore antes de escribirlo, de modo que
// ruta y URL queden fijadas juntas.
func (s *Service) Crear(ctx context.Context, in CrearInput) (*Usuario, error) {
	rol, err := ParseRol(in.Rol)
	if err != nil {
		return nil, err
	}
	if err := util.RequireString(in.Nombre, "name"); err != nil {
		return nil, err
	}
	if err := ValidarUnidad(in.Unidad.Tipo); err != nil {
		return nil, err
	}

	id, err := s.cuentas.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	perfil := Usuario{
		UID:       id.UID,
		Nombre:    strings.TrimSpace(in.Nombre),
		Email:     id.Email,
		Telefono:  strings.TrimSpace(in.Telefono),
		Unidad:    in.Unidad,
		Rol:       rol,
		Estado:    true,
		CreatedAt: time.Now().UTC(),
	}

	if in.ImagenDataURL != "" {
		imagen, err := s.subirImagen(ctx, id.UID, in.ImagenDataURL)
		if err != nil {
			return nil, err
		}
		perfil.Imagen = imagen
	}

	if err := s.repo.Append(ctx, perfil); err != nil {
		return nil, err
	}
	return &perfil, nil
}

// Listar devuelve todos los perfiles.
func (s *Service) Listar(ctx context.Context) ([]Usuario, error) {
	return s.repo.List(ctx)
}

// Obtener busca un perfil por identificador.
func (s *Service) Obtener(ctx context.Context, uid string) (Usuario, error) {
	return s.repo.FindByUID(ctx, uid)
}

// Referentes lista los usuarios elegibles como operarios de una solicitud.
func (s *Service) Referentes(ctx context.Context) ([]Usuario, error) {
	return s.repo.ListByRol(ctx, RolReferente)
}

// Actualizar reescribe el perfil mediante el protocolo de reemplazo y
// descarta el perfil cacheado de la sesión. El UID y el email no cambian.
func (s *Service) Actualizar(ctx context.Context, uid string, in ActualizarInput) (*Usuario, error) {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if err := util.RequireString(in.Nombre, "name"); err != nil {
		return nil, err
	}
	if err := ValidarUnidad(in.Unidad.Tipo); err != nil {
		return nil, err
	}

	editado := actual
	editado.Nombre = strings.TrimSpace(in.Nombre)
	editado.Telefono = strings.TrimSpace(in.Telefono)
	editado.Unidad = in.Unidad
	if in.Rol != "" {
		rol, err := ParseRol(in.Rol)
		if err != nil {
			return nil, err
		}
		editado.Rol = rol
	}

	if in.ImagenDataURL != "" {
		imagen, err := s.subirImagen(ctx, uid, in.ImagenDataURL)
		if err != nil {
			return nil, err
		}
		editado.Imagen = imagen
	}

	if err := s.repo.Replace(ctx, actual, editado); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, uid)
	}
	return &editado, nil
}

// CambiarEstado activa o desactiva la cuenta. Solo el administrador llega
// hasta aquí.
func (s *Service) CambiarEstado(ctx context.Context, uid string, estado bool) (*Usuario, error) {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	editado := actual
	editado.Estado = estado

	if err := s.repo.Replace(ctx, actual, editado); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, uid)
	}
	return &editado, nil
}

// Eliminar quita el perfil del array y borra su imagen del blobstore. La
// identidad de autenticación no se elimina.
func (s *Service) Eliminar(ctx context.Context, uid string) error {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return err
	}

	if err := s.repo.Remove(ctx, actual); err != nil {
		return err
	}

	if actual.Imagen.Path != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, actual.Imagen.Path); err != nil {
			log.Warn().Err(err).Str("path", actual.Imagen.Path).Msg("no se pudo eliminar la imagen del perfil")
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, uid)
	}
	return nil
}

func (s *Service) subirImagen(ctx context.Context, uid, dataURL string) (Imagen, error) {
	contentType, body, err := storage.DecodeDataURL(dataURL)
	if err != nil {
		return Imagen{}, err
	}

	key := uid + "/profile"
	res, err := s.blobs.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return Imagen{}, err
	}
	return Imagen{Path: key, URL: res.URL}, nil
}
