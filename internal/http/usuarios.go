package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sivigila/solicitudes/internal/usuario"
)

type usuarioPayload struct {
	Nombre   string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Telefono string          `json:"phone"`
	Unidad   usuario.Entidad `json:"unit"`
	Rol      string          `json:"role"`
	Imagen   string          `json:"image"`
}

// ListUsuarios devuelve todos los perfiles registrados.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	items, err := h.usuarios.Listar(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// CreateUsuario da de alta identidad y perfil en un solo paso.
func (h *Handler) CreateUsuario(w http.ResponseWriter, r *http.Request) {
	var payload usuarioPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	creado, err := h.usuarios.Crear(r.Context(), usuario.CrearInput{
		Nombre:        payload.Nombre,
		Email:         payload.Email,
		Password:      payload.Password,
		Telefono:      payload.Telefono,
		Unidad:        payload.Unidad,
		Rol:           payload.Rol,
		ImagenDataURL: payload.Imagen,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, creado)
}

// ListReferentes lista los perfiles elegibles como operario.
func (h *Handler) ListReferentes(w http.ResponseWriter, r *http.Request) {
	items, err := h.usuarios.Referentes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// UpdateUsuario reescribe los campos editables del perfil.
func (h *Handler) UpdateUsuario(w http.ResponseWriter, r *http.Request) {
	var payload usuarioPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	editado, err := h.usuarios.Actualizar(r.Context(), chi.URLParam(r, "uid"), usuario.ActualizarInput{
		Nombre:        payload.Nombre,
		Telefono:      payload.Telefono,
		Unidad:        payload.Unidad,
		Rol:           payload.Rol,
		ImagenDataURL: payload.Imagen,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, editado)
}

// ToggleUsuario activa o desactiva la cuenta.
func (h *Handler) ToggleUsuario(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Estado *bool `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Estado == nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "state obligatorio", nil)
		return
	}

	editado, err := h.usuarios.CambiarEstado(r.Context(), chi.URLParam(r, "uid"), *payload.Estado)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, editado)
}

// DeleteUsuario quita el perfil de la colección.
func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	if err := h.usuarios.Eliminar(r.Context(), chi.URLParam(r, "uid")); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "usuario eliminado"})
}
