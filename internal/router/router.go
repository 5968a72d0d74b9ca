package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-user-service/internal/config"
	"go-user-service/internal/handler"
	"go-user-service/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", authHandler.Login)
			auth.Post("/register", authHandler.Register)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAuth, authMiddleware.RequireActive)

			users.Get("/me", userHandler.Me)
			users.Put("/me", userHandler.UpdateMe)
			users.Get("/{id}", userHandler.Get)

			users.Group(func(admin chi.Router) {
				admin.Use(authMiddleware.RequireSuperuser)

				admin.Get("/", userHandler.List)
				admin.Post("/", userHandler.Create)
				admin.Put("/{id}", userHandler.Update)
				admin.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return r
}
