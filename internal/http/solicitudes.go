package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sivigila/solicitudes/internal/service"
	"github.com/sivigila/solicitudes/internal/solicitud"
	"github.com/sivigila/solicitudes/internal/usuario"
)

// ListSolicitudes lista las solicitudes visibles para el actor, con
// búsqueda libre, facetas y paginación. El recorte por rol se aplica antes
// que cualquier filtro controlado por el usuario.
func (h *Handler) ListSolicitudes(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "perfil no disponible", nil)
		return
	}

	items, err := h.solicitudes.Listar(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filtro := solicitud.Filtro{
		Texto:   r.URL.Query().Get("q"),
		Estado:  solicitud.Estado(strings.TrimSpace(r.URL.Query().Get("estado"))),
		Tipo:    solicitud.Tipo(strings.TrimSpace(r.URL.Query().Get("tipo"))),
		Subtipo: strings.TrimSpace(r.URL.Query().Get("subtipo")),
	}
	if pageStr := strings.TrimSpace(r.URL.Query().Get("page")); pageStr != "" {
		if v, err := strconv.Atoi(pageStr); err == nil {
			filtro.Pagina = v
		}
	}

	pagina := solicitud.Filtrar(items, service.Alcance(actor), filtro)
	WriteJSON(w, http.StatusOK, pagina)
}

// CreateSolicitud registra una solicitud nueva. El administrador puede
// crearla a nombre de otro solicitante.
func (h *Handler) CreateSolicitud(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "perfil no disponible", nil)
		return
	}
	if err := service.Autorizar(actor, service.AccionCrear, solicitud.Solicitud{}); err != nil {
		writeDomainError(w, err)
		return
	}

	var payload struct {
		Nombre      string `json:"name"`
		Descripcion string `json:"description"`
		Tipo        string `json:"type"`
		Subtipo     string `json:"subtype"`
		UsuarioUID  string `json:"userUid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	solicitante := actor
	if uid := strings.TrimSpace(payload.UsuarioUID); uid != "" && uid != actor.UID {
		// crear a nombre de terceros es privilegio del administrador
		if actor.Rol != usuario.RolAdministrador {
			writeDomainError(w, service.ErrForbidden)
			return
		}
		solicitante, err = h.usuarios.Obtener(r.Context(), uid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	creada, err := h.solicitudes.Crear(r.Context(), solicitante, solicitud.CrearInput{
		Nombre:      payload.Nombre,
		Descripcion: payload.Descripcion,
		Tipo:        solicitud.Tipo(payload.Tipo),
		Subtipo:     payload.Subtipo,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, creada)
}

// solicitudDetalle acompaña la solicitud con los campos que el actor puede
// reescribir en su estado actual, para que la presentación solo habilite
// los controles permitidos.
type solicitudDetalle struct {
	solicitud.Solicitud
	CamposEditables []string `json:"editableFields"`
}

// GetSolicitud devuelve una solicitud si el actor puede verla.
func (h *Handler) GetSolicitud(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "perfil no disponible", nil)
		return
	}

	item, err := h.solicitudes.Obtener(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !service.Alcance(actor)(item) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "registro no encontrado", nil)
		return
	}

	WriteJSON(w, http.StatusOK, solicitudDetalle{
		Solicitud:       item,
		CamposEditables: service.CamposEditables(actor, item),
	})
}

// EditSolicitud reescribe los campos del solicitante mientras la solicitud
// sigue pendiente.
func (h *Handler) EditSolicitud(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "perfil no disponible", nil)
		return
	}

	uid := chi.URLParam(r, "uid")
	actual, err := h.solicitudes.Obtener(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := service.Autorizar(actor, service.AccionEditar, actual); err != nil {
		writeDomainError(w, err)
		return
	}

	var payload struct {
		Nombre      string `json:"name"`
		Descripcion string `json:"description"`
		Tipo        string `json:"type"`
		Subtipo     string `json:"subtype"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	editada, err := h.solicitudes.Editar(r.Context(), uid, solicitud.EditarInput{
		Nombre:      payload.Nombre,
		Descripcion: payload.Descripcion,
		Tipo:        solicitud.Tipo(payload.Tipo),
		Subtipo:     payload.Subtipo,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, editada)
}

// AssignSolicitud fija el operario de la solicitud.
func (h *Handler) AssignSolicitud(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OperarioUID string `json:"operarioUid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.OperarioUID) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "operarioUid obligatorio", nil)
		return
	}

	operario, err := h.usuarios.Obtener(r.Context(), strings.TrimSpace(payload.OperarioUID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !service.EsAsignable(operario) {
		writeDomainError(w, solicitud.ErrOperarioNoElegible)
		return
	}

	asignada, err := h.solicitudes.Asignar(r.Context(), chi.URLParam(r, "uid"), operario)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, asignada)
}

// RespondSolicitud registra la respuesta y finaliza la solicitud. La
// transición a finalizada es efecto de escribir una respuesta no vacía.
func (h *Handler) RespondSolicitud(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "perfil no disponible", nil)
		return
	}

	uid := chi.URLParam(r, "uid")
	actual, err := h.solicitudes.Obtener(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := service.Autorizar(actor, service.AccionResponder, actual); err != nil {
		writeDomainError(w, err)
		return
	}

	var payload struct {
		Respuesta string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	finalizada, err := h.solicitudes.Responder(r.Context(), uid, actor, payload.Respuesta)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, finalizada)
}

// DeleteSolicitud elimina la solicitud de la colección.
func (h *Handler) DeleteSolicitud(w http.ResponseWriter, r *http.Request) {
	if err := h.solicitudes.Eliminar(r.Context(), chi.URLParam(r, "uid")); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "solicitud eliminada"})
}

// SolicitudStats cuenta solicitudes por estado para el tablero.
func (h *Handler) SolicitudStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.solicitudes.Estadisticas(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ListSubtipos expone la enumeración dependiente de subtipos del tipo.
func (h *Handler) ListSubtipos(w http.ResponseWriter, r *http.Request) {
	tipo := solicitud.Tipo(strings.TrimSpace(r.URL.Query().Get("tipo")))
	if err := solicitud.ValidarTipo(tipo); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, solicitud.SubtiposDe(tipo))
}
