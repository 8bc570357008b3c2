package solicitud

import (
	"strings"
	"time"

	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

// El ciclo de vida de una solicitud:
//
//	pendiente --[Asignar(operario)]--> asignada
//	pendiente --[Responder(respuesta)]--> finalizada   (atajo de administrador)
//	asignada  --[Responder(respuesta)]--> finalizada
//	finalizada: terminal
//
// Las funciones operan sobre copias por valor y validan la transición antes
// de que cualquier llamada de persistencia ocurra: una transición rechazada
// deja el registro intacto.

// CrearInput son los campos que aporta el solicitante al crear.
type CrearInput struct {
	Nombre      string
	Descripcion string
	Tipo        Tipo
	Subtipo     string
}

// EditarInput son los campos reescribibles mientras la solicitud está
// pendiente.
type EditarInput struct {
	Nombre      string
	Descripcion string
	Tipo        Tipo
	Subtipo     string
}

func validarCampos(nombre, descripcion string, tipo Tipo, subtipo string) error {
	if len(strings.TrimSpace(nombre)) < 2 {
		return &util.ValidationError{Campo: "name", Mensaje: "el nombre requiere al menos 2 caracteres"}
	}
	if len(strings.TrimSpace(descripcion)) < 10 {
		return &util.ValidationError{Campo: "description", Mensaje: "la descripción requiere al menos 10 caracteres"}
	}
	return ValidarSubtipo(tipo, subtipo)
}

// Nueva construye una solicitud en estado pendiente con createdAt estampado
// y el snapshot del solicitante fijado de forma definitiva.
func Nueva(solicitante usuario.Usuario, in CrearInput, now time.Time) (Solicitud, error) {
	if err := validarCampos(in.Nombre, in.Descripcion, in.Tipo, in.Subtipo); err != nil {
		return Solicitud{}, err
	}

	return Solicitud{
		UID:         util.NewID(),
		Nombre:      strings.TrimSpace(in.Nombre),
		Descripcion: strings.TrimSpace(in.Descripcion),
		Tipo:        in.Tipo,
		Subtipo:     in.Subtipo,
		Estado:      EstadoPendiente,
		Usuario:     solicitante,
		CreatedAt:   now.UTC(),
	}, nil
}

// Asignar fija el operario y pasa la solicitud a asignada. Es válida desde
// pendiente y también desde asignada (reasignación), re-estampando
// assignedAt en cada asignación. El operario debe tener rol de referente.
func (s Solicitud) Asignar(operario usuario.Usuario, now time.Time) (Solicitud, error) {
	if s.Estado != EstadoPendiente && s.Estado != EstadoAsignada {
		return s, ErrTransicionInvalida
	}
	if operario.Rol != usuario.RolReferente {
		return s, ErrOperarioNoElegible
	}

	at := now.UTC()
	s.Operario = &operario
	s.AssignedAt = &at
	s.Estado = EstadoAsignada
	return s, nil
}

// Responder registra la respuesta y finaliza la solicitud. Es válida desde
// pendiente o asignada y exige respuesta no vacía. Si responde un
// administrador que no es el operario asignado, su snapshot pasa a ser el
// respondedor de registro.
func (s Solicitud) Responder(actor usuario.Usuario, respuesta string, now time.Time) (Solicitud, error) {
	if s.Estado != EstadoPendiente && s.Estado != EstadoAsignada {
		return s, ErrTransicionInvalida
	}
	respuesta = strings.TrimSpace(respuesta)
	if respuesta == "" {
		return s, &util.ValidationError{Campo: "answer", Mensaje: "la respuesta no puede estar vacía"}
	}

	at := now.UTC()
	if actor.Rol == usuario.RolAdministrador && (s.Operario == nil || s.Operario.UID != actor.UID) {
		s.Operario = &actor
		if s.AssignedAt == nil {
			s.AssignedAt = &at
		}
	}

	s.Respuesta = respuesta
	s.AnswerAt = &at
	s.Estado = EstadoFinalizada
	return s, nil
}

// Editar reescribe nombre, descripción, tipo y subtipo. Solo es válida
// mientras la solicitud sigue pendiente; el subtipo se revalida contra el
// tipo resultante.
func (s Solicitud) Editar(in EditarInput) (Solicitud, error) {
	if s.Estado != EstadoPendiente {
		return s, ErrTransicionInvalida
	}
	if err := validarCampos(in.Nombre, in.Descripcion, in.Tipo, in.Subtipo); err != nil {
		return s, err
	}

	s.Nombre = strings.TrimSpace(in.Nombre)
	s.Descripcion = strings.TrimSpace(in.Descripcion)
	s.Tipo = in.Tipo
	s.Subtipo = in.Subtipo
	return s, nil
}
