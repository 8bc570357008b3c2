package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// corsPolicy resuelve si un Origin está permitido: por coincidencia exacta
// o por wildcard de subdominio cuando la entrada empieza con "*."
// (ej.: *.sivigila.gov.co permite panel.sivigila.gov.co pero no la raíz).
type corsPolicy struct {
	exact    map[string]struct{}
	suffixes []string // hosts base en minúsculas, sin esquema
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{exact: make(map[string]struct{})}
	for _, entry := range allowedOrigins {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
		case strings.HasPrefix(entry, "*."):
			p.suffixes = append(p.suffixes, strings.ToLower(strings.TrimPrefix(entry, "*.")))
		default:
			p.exact[entry] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	if len(p.suffixes) == 0 {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, base := range p.suffixes {
		// el wildcard exige subdominio: la raíz no coincide
		if host != base && strings.HasSuffix(host, "."+base) {
			return true
		}
	}
	return false
}

// CORS aplica una política restringida basada en ALLOW_ORIGINS.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); policy.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
				h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
