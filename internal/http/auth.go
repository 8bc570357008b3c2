package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	httpmiddleware "github.com/sivigila/solicitudes/internal/http/middleware"
	"github.com/sivigila/solicitudes/internal/service"
	"github.com/sivigila/solicitudes/internal/usuario"
)

// actor resuelve el perfil de dominio del sujeto autenticado.
func (h *Handler) actor(r *http.Request) (usuario.Usuario, error) {
	subject := httpmiddleware.GetSubject(r.Context())
	if subject == "" {
		return usuario.Usuario{}, errors.New("sujeto ausente")
	}
	return h.resolver.Resolve(r.Context(), subject)
}

// Login autentica email y contraseña y abre la sesión.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	result, err := h.authService.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			WriteError(w, http.StatusUnauthorized, "AUTH", "credenciales inválidas", nil)
		case errors.Is(err, service.ErrEmailNoVerificado):
			WriteError(w, http.StatusForbidden, "EMAIL_NO_VERIFICADO", "verifique su correo antes de ingresar", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			WriteError(w, http.StatusForbidden, "CUENTA_INACTIVA", "cuenta desactivada", nil)
		default:
			writeDomainError(w, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Refresh rota el refresh token y devuelve nuevos tokens.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.RefreshToken) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "refreshToken obligatorio", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshInvalid):
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh token inválido", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			WriteError(w, http.StatusForbidden, "CUENTA_INACTIVA", "cuenta desactivada", nil)
		default:
			writeDomainError(w, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Logout revoca el refresh y desmonta el caché de sesión.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	subject := httpmiddleware.GetSubject(r.Context())
	if err := h.authService.SignOut(r.Context(), payload.RefreshToken, subject); err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "sesión cerrada"})
}

// VerifyEmail consume el token de verificación de correo.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Token) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "token obligatorio", nil)
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), payload.Token); err != nil {
		if errors.Is(err, service.ErrVerificacionInvalida) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "token de verificación inválido", nil)
			return
		}
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "correo verificado"})
}

// Profile devuelve el perfil del sujeto autenticado.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	perfil, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "perfil no disponible", nil)
		return
	}
	WriteJSON(w, http.StatusOK, perfil)
}
