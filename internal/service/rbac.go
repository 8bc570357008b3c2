package service

import (
	"errors"

	"github.com/sivigila/solicitudes/internal/solicitud"
	"github.com/sivigila/solicitudes/internal/usuario"
)

var (
	// ErrForbidden indica ausencia de permiso para la acción.
	ErrForbidden = errors.New("acceso denegado")
)

// Accion es una operación gobernada por la matriz de permisos.
type Accion string

const (
	AccionCrear     Accion = "crear"
	AccionEditar    Accion = "editar"
	AccionAsignar   Accion = "asignar"
	AccionResponder Accion = "responder"
	AccionEliminar  Accion = "eliminar"
)

// La matriz por rol es pura: se evalúa en la frontera del servidor antes de
// aceptar cualquier mutación, no solo para ocultar controles en la
// presentación.

// Permitido decide si el actor puede ejecutar la acción sobre la solicitud.
// Para AccionCrear la solicitud se ignora.
func Permitido(actor usuario.Usuario, accion Accion, s solicitud.Solicitud) bool {
	switch actor.Rol {
	case usuario.RolAdministrador:
		return true
	case usuario.RolSolicitante:
		switch accion {
		case AccionCrear:
			return true
		case AccionEditar:
			return s.Usuario.UID == actor.UID && s.Estado == solicitud.EstadoPendiente
		default:
			return false
		}
	case usuario.RolReferente:
		// El referente finaliza escribiendo la respuesta de lo asignado a él;
		// no crea, no edita campos del solicitante, no asigna ni elimina.
		return accion == AccionResponder && s.Operario != nil && s.Operario.UID == actor.UID
	default:
		return false
	}
}

// Autorizar es Permitido con error tipado para las capas que propagan.
func Autorizar(actor usuario.Usuario, accion Accion, s solicitud.Solicitud) error {
	if !Permitido(actor, accion, s) {
		return ErrForbidden
	}
	return nil
}

// Alcance devuelve el predicado de visibilidad del actor sobre la
// colección: el solicitante ve solo lo propio, el referente solo lo
// asignado a él y el administrador todo. Se aplica antes de cualquier
// filtro controlado por el usuario.
func Alcance(actor usuario.Usuario) func(solicitud.Solicitud) bool {
	switch actor.Rol {
	case usuario.RolAdministrador:
		return func(solicitud.Solicitud) bool { return true }
	case usuario.RolReferente:
		return func(s solicitud.Solicitud) bool {
			return s.Operario != nil && s.Operario.UID == actor.UID
		}
	default:
		return func(s solicitud.Solicitud) bool {
			return s.Usuario.UID == actor.UID
		}
	}
}

// CamposEditables enumera los campos que el actor puede reescribir sobre la
// solicitud en su estado actual.
func CamposEditables(actor usuario.Usuario, s solicitud.Solicitud) []string {
	switch actor.Rol {
	case usuario.RolAdministrador:
		return []string{"name", "description", "type", "subtype", "answer", "operario", "state"}
	case usuario.RolSolicitante:
		if s.Usuario.UID == actor.UID && s.Estado == solicitud.EstadoPendiente {
			return []string{"name", "description", "type", "subtype"}
		}
		return nil
	case usuario.RolReferente:
		if s.Operario != nil && s.Operario.UID == actor.UID && !s.Terminada() {
			return []string{"answer"}
		}
		return nil
	default:
		return nil
	}
}

// EsAsignable indica si el usuario es elegible como operario de una
// solicitud.
func EsAsignable(u usuario.Usuario) bool {
	return u.Rol == usuario.RolReferente
}
