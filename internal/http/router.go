package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sivigila/solicitudes/internal/categoria"
	"github.com/sivigila/solicitudes/internal/config"
	httpmiddleware "github.com/sivigila/solicitudes/internal/http/middleware"
	"github.com/sivigila/solicitudes/internal/service"
	"github.com/sivigila/solicitudes/internal/solicitud"
	"github.com/sivigila/solicitudes/internal/usuario"
)

// Handler agrupa las dependencias de la capa HTTP.
type Handler struct {
	cfg           *config.Config
	authService   *service.AuthService
	resolver      *service.Resolver
	solicitudes   *solicitud.Service
	usuarios      *usuario.Service
	categorias    *categoria.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// Deps son los colaboradores que arma el main.
type Deps struct {
	AuthService *service.AuthService
	Resolver    *service.Resolver
	Solicitudes *solicitud.Service
	Usuarios    *usuario.Service
	Categorias  *categoria.Service
}

// NewRouter devuelve el enrutador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	h := &Handler{
		cfg:           cfg,
		authService:   deps.AuthService,
		resolver:      deps.Resolver,
		solicitudes:   deps.Solicitudes,
		usuarios:      deps.Usuarios,
		categorias:    deps.Categorias,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/salud", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/verificacion", h.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.Auth(h.authService.JWT()))
			r.Post("/logout", h.Logout)
			r.Get("/perfil", h.Profile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.Auth(h.authService.JWT()))
		r.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		r.Route("/solicitudes", func(r chi.Router) {
			r.Get("/", h.ListSolicitudes)
			r.Post("/", h.CreateSolicitud)
			r.With(httpmiddleware.RequireAdministrador).Get("/estadisticas", h.SolicitudStats)
			r.Get("/subtipos", h.ListSubtipos)

			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", h.GetSolicitud)
				r.Put("/", h.EditSolicitud)
				r.With(httpmiddleware.RequireAdministrador).Delete("/", h.DeleteSolicitud)
				r.With(httpmiddleware.RequireAdministrador).Post("/asignar", h.AssignSolicitud)
				r.Post("/responder", h.RespondSolicitud)
			})
		})

		r.Route("/usuarios", func(r chi.Router) {
			r.Use(httpmiddleware.RequireAdministrador)
			r.Get("/", h.ListUsuarios)
			r.Post("/", h.CreateUsuario)
			r.Get("/referentes", h.ListReferentes)

			r.Route("/{uid}", func(r chi.Router) {
				r.Put("/", h.UpdateUsuario)
				r.Delete("/", h.DeleteUsuario)
				r.Patch("/estado", h.ToggleUsuario)
			})
		})

		r.Route("/categorias", func(r chi.Router) {
			r.Get("/", h.ListCategorias)

			r.Group(func(r chi.Router) {
				r.Use(httpmiddleware.RequireAdministrador)
				r.Post("/", h.CreateCategoria)
				r.Put("/{id}", h.UpdateCategoria)
				r.Patch("/{id}/estado", h.ToggleCategoria)
				r.Delete("/{id}", h.DeleteCategoria)
			})
		})
	})

	return r
}

// Health responde el chequeo de vida.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
