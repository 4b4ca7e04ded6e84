package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clientvault/internal/config"
	"clientvault/internal/handler"
	"clientvault/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Client *handler.ClientHandler
	Files  *handler.FilesHandler
	Trash  *handler.TrashHandler
	Audit  *handler.AuditHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/register", h.Auth.Register)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.With(authMiddleware.RequireAuth).Get("/taxyears", h.Client.TaxYears)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/taxyears", h.Client.AddTaxYear)

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/audit", h.Audit.Tail)

		api.Route("/clients", func(clients chi.Router) {
			clients.Use(authMiddleware.RequireAuth)

			clients.With(authMiddleware.RequireRoles("admin")).Get("/", h.Client.List)
			clients.With(authMiddleware.RequireRoles("admin")).Post("/", h.Client.Create)

			clients.Route("/{client}", func(client chi.Router) {
				client.With(authMiddleware.RequireRoles("admin")).Put("/structure", h.Client.UpdateStructure)

				client.Get("/files", h.Files.List)
				client.Post("/files", h.Files.Upload)
				client.Delete("/files", h.Files.Delete)
				client.Get("/files/download", h.Files.Download)
				client.Post("/directories", h.Files.Mkdir)
				client.Post("/notes", h.Files.WriteText)

				client.Get("/trash", h.Trash.List)
				client.Post("/trash", h.Trash.Trash)
				client.Post("/trash/restore", h.Trash.Restore)
				client.Delete("/trash", h.Trash.Purge)
				client.Delete("/trash/all", h.Trash.Empty)
			})
		})
	})

	return r
}
