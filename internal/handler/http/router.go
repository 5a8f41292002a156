package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions holds the HTTP surface settings that vary per deployment.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(JWTService jwt.Service, attendanceHandler AttendanceHandler, leaveHandler LeaveHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// SSE authenticates with a stream token in the query string
		r.Get("/attendance/live/stream", attendanceHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/live", attendanceHandler.GetLive)
				r.Post("/live/stream/token", attendanceHandler.StreamToken)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
						r.Get("/daily", attendanceHandler.GetDaily)
						r.Get("/daily/export", attendanceHandler.ExportDaily)
					})

					r.Route("/sync", func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceSync))
						r.Get("/status", attendanceHandler.SyncStatus)
						r.Delete("/cache", attendanceHandler.ClearSyncCache)
					})
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Get("/balance", leaveHandler.GetBalance)
				r.Get("/policy", leaveHandler.GetPolicy)
			})
		})
	})
	return r
}
