package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitante asocia un limiter a la última vez que su clave fue vista, para
// poder expirar entradas de clientes que dejaron de llamar.
type visitante struct {
	limiter   *rate.Limiter
	ultimaVez time.Time
}

// RateLimiter mantiene un limiter por clave (IP o sujeto autenticado) con
// expiración perezosa de entradas viejas.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu         sync.Mutex
	visitantes map[string]*visitante
	maxEdad    time.Duration
	barridoEn  time.Time
}

// NewRateLimiter crea el limitador con la tasa y ráfaga dadas.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:      rate.Limit(reqPerSec),
		burst:      burst,
		visitantes: make(map[string]*visitante),
		maxEdad:    10 * time.Minute,
		barridoEn:  time.Now(),
	}
}

// permitir consume un token del limiter de la clave, creándolo si es nuevo.
func (r *RateLimiter) permitir(key string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	// barrido perezoso: como mucho una pasada por maxEdad
	if now.Sub(r.barridoEn) > r.maxEdad {
		for k, v := range r.visitantes {
			if now.Sub(v.ultimaVez) > r.maxEdad {
				delete(r.visitantes, k)
			}
		}
		r.barridoEn = now
	}

	v, ok := r.visitantes[key]
	if !ok {
		v = &visitante{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitantes[key] = v
	}
	v.ultimaVez = now

	return v.limiter.Allow()
}

// LimitByKey aplica el límite usando la clave que derive keyFunc; una clave
// vacía deja pasar la solicitud sin limitar.
func (r *RateLimiter) LimitByKey(next http.Handler, keyFunc func(*http.Request) (string, bool)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key, ok := keyFunc(req)
		if !ok || key == "" {
			next.ServeHTTP(w, req)
			return
		}

		if !r.permitir(key) {
			w.Header().Set("Retry-After", "1")
			writeRateLimitError(w)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// IPRateLimit usa la IP remota como clave.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			return realIPFromRequest(r), true
		})
	}
}

// UserRateLimit usa el sujeto autenticado como clave.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return limiter.LimitByKey(next, func(r *http.Request) (string, bool) {
			subject := GetSubject(r.Context())
			if subject == "" {
				return "", false
			}
			return subject, true
		})
	}
}

func realIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    "RATE_LIMIT",
			"message": "Límite de solicitudes excedido",
		},
	})
}
