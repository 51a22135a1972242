package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/taktplan/internal/attachment"
	"github.com/frahmantamala/taktplan/internal/auth"
	"github.com/frahmantamala/taktplan/internal/task"
	"github.com/frahmantamala/taktplan/internal/transport/middleware"
	"github.com/frahmantamala/taktplan/internal/transport/swagger"
	"github.com/frahmantamala/taktplan/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Auth         *auth.Handler
	Tasks        *task.Handler
	Users        *user.Handler
	Attachments  *attachment.Handler
	Health       *HealthHandler
	RBAC         *auth.RBACAuthorization
	LoginLimiter *middleware.IPRateLimiter
}

type Options struct {
	AllowedOrigins []string
	// TracingService names the otelhttp server spans; empty disables tracing.
	TracingService string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	if opts.TracingService != "" {
		router.Use(middleware.Tracing(opts.TracingService))
	}
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.TraceID)
	router.Use(middleware.AccessLog(logger))
	router.Use(middleware.Recovery(logger))

	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Auth.Register)
			ar.Group(func(lr chi.Router) {
				if h.LoginLimiter != nil {
					lr.Use(h.LoginLimiter.Middleware)
				}
				lr.Post("/login", h.Auth.Login)
			})
			ar.With(h.Auth.AuthMiddleware).Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/tasks", func(tr chi.Router) {
				tr.Get("/", h.Tasks.ListTasks)
				tr.Post("/", h.Tasks.CreateTask)
				tr.Get("/my-tasks", h.Tasks.ListMyTasks)
				tr.Get("/{id}", h.Tasks.GetTask)
				tr.Put("/{id}", h.Tasks.UpdateTask)
				tr.Delete("/{id}", h.Tasks.DeleteTask)

				if h.Attachments != nil {
					tr.Get("/{id}/attachments", h.Attachments.List)
					tr.Post("/{id}/attachments", h.Attachments.Upload)
				}
			})

			pr.Get("/users/me", h.Users.GetCurrentUser)

			pr.Group(func(mr chi.Router) {
				mr.Use(h.RBAC.RequireManager())
				mr.Get("/users", h.Users.ListUsers)
			})

			pr.Route("/admin", func(adm chi.Router) {
				adm.Use(h.RBAC.RequireAdmin())
				adm.Get("/users", h.Users.AdminListUsers)
				adm.Put("/users/{id}/role", h.Users.ChangeRole)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND","code":"ROUTE_NOT_FOUND","message":"route not found"}}`))
	})
}
