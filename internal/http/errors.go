package http

import (
	"errors"
	"net/http"

	"github.com/sivigila/solicitudes/internal/categoria"
	"github.com/sivigila/solicitudes/internal/docstore"
	"github.com/sivigila/solicitudes/internal/identidad"
	"github.com/sivigila/solicitudes/internal/service"
	"github.com/sivigila/solicitudes/internal/solicitud"
	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

// writeDomainError traduce la taxonomía de errores del dominio al envelope
// HTTP. Ninguna falla de persistencia se propaga sin atrapar.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *util.ValidationError
	switch {
	case errors.As(err, &validation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", validation.Mensaje, map[string]string{"field": validation.Campo})
	case errors.Is(err, solicitud.ErrTransicionInvalida):
		WriteError(w, http.StatusConflict, "TRANSICION", "la transición no es válida para el estado actual", nil)
	case errors.Is(err, solicitud.ErrOperarioNoElegible):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "el usuario no es elegible como operario", nil)
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "acceso denegado", nil)
	case errors.Is(err, solicitud.ErrNotFound),
		errors.Is(err, usuario.ErrNotFound),
		errors.Is(err, categoria.ErrNotFound),
		errors.Is(err, identidad.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "registro no encontrado", nil)
	case errors.Is(err, usuario.ErrRolInvalido), errors.Is(err, usuario.ErrUnidadInvalida):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, identidad.ErrEmailEnUso):
		WriteError(w, http.StatusConflict, "CONFLICT", "el correo ya está registrado", nil)
	case errors.Is(err, docstore.ErrItemDropped):
		// el elemento salió del array y el reemplazo no se escribió:
		// hay riesgo de pérdida y la operación completa debe reintentarse
		WriteError(w, http.StatusInternalServerError, "PERDIDA_DATOS", "la actualización quedó incompleta; reintente la operación completa", nil)
	case errors.Is(err, docstore.ErrStaleItem):
		WriteError(w, http.StatusConflict, "DESACTUALIZADO", "el registro cambió en el servidor; recargue e intente de nuevo", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "error interno", nil)
	}
}
