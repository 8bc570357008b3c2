package solicitud

import (
	"context"
	"time"

	"github.com/sivigila/solicitudes/internal/usuario"
)

// Service reúne las reglas de negocio del ciclo de vida de solicitudes.
// Cada mutación carga la copia vigente desde el almacén, aplica la
// transición sobre una copia por valor y persiste con el protocolo de
// reemplazo; nada se actualiza en memoria hasta que el almacén confirma.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService crea una nueva instancia del servicio.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Crear registra una nueva solicitud en estado pendiente a nombre del
// solicitante.
func (s *Service) Crear(ctx context.Context, solicitante usuario.Usuario, in CrearInput) (*Solicitud, error) {
	nueva, err := Nueva(solicitante, in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, nueva); err != nil {
		return nil, err
	}
	return &nueva, nil
}

// Listar devuelve todas las solicitudes de la colección. El recorte por
// rol y los filtros se aplican después, sobre la lista en memoria.
func (s *Service) Listar(ctx context.Context) ([]Solicitud, error) {
	return s.repo.List(ctx)
}

// Obtener busca una solicitud por su identificador.
func (s *Service) Obtener(ctx context.Context, uid string) (Solicitud, error) {
	return s.repo.FindByUID(ctx, uid)
}

// Editar reescribe los campos del solicitante mientras la solicitud sigue
// pendiente.
func (s *Service) Editar(ctx context.Context, uid string, in EditarInput) (*Solicitud, error) {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	editada, err := actual.Editar(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, actual, editada); err != nil {
		return nil, err
	}
	return &editada, nil
}

// Asignar fija el operario de la solicitud y la pasa a asignada.
func (s *Service) Asignar(ctx context.Context, uid string, operario usuario.Usuario) (*Solicitud, error) {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	asignada, err := actual.Asignar(operario, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, actual, asignada); err != nil {
		return nil, err
	}
	return &asignada, nil
}

// Responder registra la respuesta del actor y finaliza la solicitud.
func (s *Service) Responder(ctx context.Context, uid string, actor usuario.Usuario, respuesta string) (*Solicitud, error) {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	finalizada, err := actual.Responder(actor, respuesta, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, actual, finalizada); err != nil {
		return nil, err
	}
	return &finalizada, nil
}

// Eliminar quita la solicitud de la colección. Es una operación exclusiva
// del administrador, ortogonal a la máquina de estados.
func (s *Service) Eliminar(ctx context.Context, uid string) error {
	actual, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return err
	}
	return s.repo.Remove(ctx, actual)
}

// Estadisticas cuenta solicitudes por estado para el tablero.
func (s *Service) Estadisticas(ctx context.Context) (map[Estado]int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[Estado]int{
		EstadoPendiente:  0,
		EstadoAsignada:   0,
		EstadoFinalizada: 0,
	}
	for _, item := range items {
		stats[item.Estado]++
	}
	return stats, nil
}
