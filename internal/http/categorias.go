package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sivigila/solicitudes/internal/categoria"
)

type categoriaPayload struct {
	Nombre string `json:"name"`
	Imagen string `json:"image"`
}

// ListCategorias devuelve el catálogo completo.
func (h *Handler) ListCategorias(w http.ResponseWriter, r *http.Request) {
	items, err := h.categorias.Listar(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

// CreateCategoria agrega una entrada al catálogo.
func (h *Handler) CreateCategoria(w http.ResponseWriter, r *http.Request) {
	var payload categoriaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	creada, err := h.categorias.Crear(r.Context(), categoria.CrearInput{
		Nombre:        payload.Nombre,
		ImagenDataURL: payload.Imagen,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, creada)
}

// UpdateCategoria reescribe nombre e imagen de la entrada.
func (h *Handler) UpdateCategoria(w http.ResponseWriter, r *http.Request) {
	var payload categoriaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	editada, err := h.categorias.Actualizar(r.Context(), chi.URLParam(r, "id"), payload.Nombre, payload.Imagen)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, editada)
}

// ToggleCategoria alterna la visibilidad de la entrada.
func (h *Handler) ToggleCategoria(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Estado *bool `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Estado == nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "state obligatorio", nil)
		return
	}

	editada, err := h.categorias.CambiarEstado(r.Context(), chi.URLParam(r, "id"), *payload.Estado)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, editada)
}

// DeleteCategoria quita la entrada del catálogo.
func (h *Handler) DeleteCategoria(w http.ResponseWriter, r *http.Request) {
	if err := h.categorias.Eliminar(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "categoría eliminada"})
}
