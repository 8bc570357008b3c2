package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sivigila/solicitudes/internal/auth"
	"github.com/sivigila/solicitudes/internal/usuario"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRoles   contextKey = "roles"
)

// Auth valida el JWT de acceso e inyecta los claims en el contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyRoles, claims.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera el subject del contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetRoles recupera los roles del contexto.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyRoles).([]string)
	return val
}

// HasRole indica si el contexto porta el rol canónico dado, aceptando las
// grafías históricas en el claim.
func HasRole(ctx context.Context, rol usuario.Rol) bool {
	for _, raw := range GetRoles(ctx) {
		if parsed, err := usuario.ParseRol(raw); err == nil && parsed == rol {
			return true
		}
	}
	return false
}

// RequireAdministrador garantiza el papel de administrador.
func RequireAdministrador(next http.Handler) http.Handler {
	return RequireRoles(usuario.RolAdministrador)(next)
}

// RequireRoles garantiza que el sujeto posea al menos uno de los roles.
func RequireRoles(roles ...usuario.Rol) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rol := range roles {
				if HasRole(r.Context(), rol) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acceso denegado")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
