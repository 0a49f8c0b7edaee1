package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"contactbook/internal/auth"
	"contactbook/internal/config"
	"contactbook/internal/contact"
	"contactbook/internal/httputil"
	"contactbook/internal/logging"
	"contactbook/internal/metrics"
	"contactbook/internal/user"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	contactHandler *contact.Handler,
	authMiddleware *auth.Middleware,
	m *metrics.Metrics,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Global middleware
	r.Use(securityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(m.Middleware)
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", userHandler.Me)
			r.Patch("/", userHandler.UpdateMe)
			r.Delete("/", userHandler.DeleteMe)
			r.Post("/image", userHandler.UploadImage)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Post("/", contactHandler.Create)
			r.Get("/", contactHandler.List)
			r.Get("/{contactID}", contactHandler.Get)
			r.Patch("/{contactID}", contactHandler.Update)
			r.Delete("/{contactID}", contactHandler.Delete)
			r.Post("/{contactID}/image", contactHandler.UploadImage)
		})
	})

	return r
}

// securityHeaders sets the hardening headers on every response. API responses
// get a deny-all content security policy; the Swagger UI is the one surface
// that actually renders HTML and needs its inline scripts and styles allowed.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		csp := "default-src 'none'"
		if strings.HasPrefix(r.URL.Path, "/swagger/") {
			csp = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
		}
		h.Set("Content-Security-Policy", csp)

		next.ServeHTTP(w, r)
	})
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
