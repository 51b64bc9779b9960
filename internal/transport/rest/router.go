package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/navgurukul/leave-management/internal/auth"
	"github.com/navgurukul/leave-management/internal/leave"
	"github.com/navgurukul/leave-management/internal/transport/middleware"
	"github.com/navgurukul/leave-management/internal/transport/swagger"
	"github.com/navgurukul/leave-management/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, roleAuth *auth.RoleAuthorization, userHandler *user.Handler, leaveHandler *leave.Handler, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/signup", authHandler.Signup)
				sr.Post("/login", authHandler.Login)
				sr.Post("/google", authHandler.GoogleLogin)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				pr.Get("/auth/views", authHandler.Views)

				// User routes
				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)

					pr.Group(func(ur chi.Router) {
						ur.Use(roleAuth.RequireApprover())
						ur.Get("/users", userHandler.ListUsers)
					})

					pr.Group(func(ur chi.Router) {
						ur.Use(roleAuth.RequireRoleManager())
						ur.Patch("/users/{id}/role", userHandler.UpdateRole)
					})
				}

				// Leave routes
				if leaveHandler != nil {
					pr.Route("/leaves", func(lr chi.Router) {
						lr.Post("/", leaveHandler.Apply)   // POST /leaves
						lr.Get("/", leaveHandler.List)     // GET /leaves
						lr.Get("/{id}", leaveHandler.Get)  // GET /leaves/:id

						// Approver routes
						lr.Group(func(ar chi.Router) {
							ar.Use(roleAuth.RequireApprover())
							ar.Patch("/{id}/approve", leaveHandler.Approve) // PATCH /leaves/:id/approve
							ar.Patch("/{id}/reject", leaveHandler.Reject)   // PATCH /leaves/:id/reject
						})
					})
				}
			})
		}
	})
}
