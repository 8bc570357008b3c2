package solicitud

import (
	"errors"
	"time"

	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

var (
	// ErrNotFound es devuelto cuando la solicitud no existe en la colección.
	ErrNotFound = errors.New("solicitud no encontrada")
	// ErrTransicionInvalida indica un cambio de estado no permitido por el
	// ciclo de vida. Se rechaza antes de cualquier llamada de persistencia.
	ErrTransicionInvalida = errors.New("transición de estado inválida")
	// ErrOperarioNoElegible indica que el usuario a asignar no tiene rol de
	// referente.
	ErrOperarioNoElegible = errors.New("el usuario no es elegible como operario")
)

// Estado del ciclo de vida de una solicitud.
type Estado string

const (
	EstadoPendiente  Estado = "pendiente"
	EstadoAsignada   Estado = "asignada"
	EstadoFinalizada Estado = "finalizada"
)

// Tipo de solicitud. La enumeración es extensible; hoy solo existe SIVIGILA.
type Tipo string

const (
	TipoSivigila Tipo = "sivigila"
)

// Subtipos de SIVIGILA.
const (
	SubtipoInstalacion     = "Instalación"
	SubtipoActualizacion   = "Actualización"
	SubtipoCapacitacion    = "Capacitación"
	SubtipoFortalecimiento = "Fortalecimiento"
	SubtipoAjustes         = "Ajustes"
	SubtipoBAI             = "BAI"
)

var subtiposPorTipo = map[Tipo][]string{
	TipoSivigila: {
		SubtipoInstalacion,
		SubtipoActualizacion,
		SubtipoCapacitacion,
		SubtipoFortalecimiento,
		SubtipoAjustes,
		SubtipoBAI,
	},
}

// SubtiposDe devuelve la enumeración dependiente de subtipos para el tipo.
func SubtiposDe(tipo Tipo) []string {
	return subtiposPorTipo[tipo]
}

// ValidarTipo acepta solo tipos conocidos.
func ValidarTipo(tipo Tipo) error {
	if _, ok := subtiposPorTipo[tipo]; !ok {
		return &util.ValidationError{Campo: "type", Mensaje: "tipo de solicitud desconocido"}
	}
	return nil
}

// ValidarSubtipo exige que el subtipo pertenezca al conjunto del tipo.
// Cambiar el tipo invalida cualquier subtipo elegido previamente.
func ValidarSubtipo(tipo Tipo, subtipo string) error {
	if err := ValidarTipo(tipo); err != nil {
		return err
	}
	for _, s := range subtiposPorTipo[tipo] {
		if s == subtipo {
			return nil
		}
	}
	return &util.ValidationError{Campo: "subtype", Mensaje: "subtipo no pertenece al tipo seleccionado"}
}

// Solicitud es la entidad central del sistema: una petición de servicio que
// avanza de pendiente a asignada y finalizada.
type Solicitud struct {
	UID         string           `json:"uid" bson:"uid"`
	Nombre      string           `json:"name" bson:"name"`
	Descripcion string           `json:"description" bson:"description"`
	Tipo        Tipo             `json:"type" bson:"type"`
	Subtipo     string           `json:"subtype" bson:"subtype"`
	Estado      Estado           `json:"state" bson:"state"`
	Usuario     usuario.Usuario  `json:"user" bson:"user"`
	Operario    *usuario.Usuario `json:"operario,omitempty" bson:"operario,omitempty"`
	Respuesta   string           `json:"answer,omitempty" bson:"answer,omitempty"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
	AssignedAt  *time.Time       `json:"assignedAt,omitempty" bson:"assignedAt,omitempty"`
	AnswerAt    *time.Time       `json:"answerAt,omitempty" bson:"answerAt,omitempty"`
}

// Terminada indica si la solicitud llegó a su estado terminal.
func (s Solicitud) Terminada() bool {
	return s.Estado == EstadoFinalizada
}

// VerificarInvariantes comprueba la coherencia interna del registro:
// operario y assignedAt presentes juntos, respuesta y answerAt presentes
// juntos, y finalizada implica respuesta.
func (s Solicitud) VerificarInvariantes() error {
	if (s.Operario != nil) != (s.AssignedAt != nil) {
		return errors.New("operario y assignedAt deben estar presentes juntos")
	}
	if (s.Respuesta != "") != (s.AnswerAt != nil) {
		return errors.New("respuesta y answerAt deben estar presentes juntos")
	}
	if s.Estado == EstadoFinalizada && s.Respuesta == "" {
		return errors.New("una solicitud finalizada requiere respuesta")
	}
	if s.Estado == EstadoAsignada && s.Operario == nil {
		return errors.New("una solicitud asignada requiere operario")
	}
	return nil
}
