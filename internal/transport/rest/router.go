package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/auth"
	"github.com/frahmantamala/report-management/internal/dashboard"
	"github.com/frahmantamala/report-management/internal/department"
	"github.com/frahmantamala/report-management/internal/notification"
	"github.com/frahmantamala/report-management/internal/report"
	"github.com/frahmantamala/report-management/internal/settings"
	"github.com/frahmantamala/report-management/internal/transport/middleware"
	"github.com/frahmantamala/report-management/internal/transport/swagger"
	"github.com/frahmantamala/report-management/internal/user"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	Report       *report.Handler
	Audit        *audit.Handler
	Notification *notification.Handler
	Department   *department.Handler
	User         *user.Handler
	Dashboard    *dashboard.Handler
	Settings     *settings.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
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
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/register", h.Auth.Register)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/reports", func(rr chi.Router) {
				rr.Post("/", h.Report.SubmitReport)
				rr.Get("/", h.Report.ListReports)
				rr.Get("/{id}", h.Report.GetReport)
				rr.Patch("/{id}/approve", h.Report.ApproveReport)
				rr.Patch("/{id}/reject", h.Report.RejectReport)
				rr.Post("/{id}/comments", h.Report.AddComment)
				rr.Get("/{id}/comments", h.Report.ListComments)
			})

			pr.Route("/notifications", func(nr chi.Router) {
				nr.Get("/", h.Notification.ListNotifications)
				nr.Get("/count", h.Notification.UnreadCount)
				nr.Put("/mark-all-read", h.Notification.MarkAllRead)
				nr.Put("/{id}/read", h.Notification.MarkRead)
				nr.Delete("/{id}", h.Notification.DeleteNotification)
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Department.ListDepartments)
				dr.Post("/", h.Department.CreateDepartment)
				dr.Get("/{id}", h.Department.GetDepartment)
				dr.Put("/{id}", h.Department.UpdateDepartment)
				dr.Delete("/{id}", h.Department.DeleteDepartment)
				dr.Get("/{id}/staff", h.Department.ListStaff)
				dr.Post("/{id}/staff", h.Department.AssignStaff)
				dr.Delete("/{id}/staff/{staffID}", h.Department.UnassignStaff)
			})

			pr.Route("/dashboard", func(dr chi.Router) {
				dr.Get("/analytics", h.Dashboard.Analytics)
				dr.Get("/department-performance", h.Dashboard.DepartmentPerformance)
				dr.Get("/activity", h.Dashboard.Activity)
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.Get("/stats", h.User.Stats)
				ar.Get("/audit-logs", h.Audit.ListAuditLogs)
				ar.Get("/settings", h.Settings.GetSettings)
				ar.Put("/settings", h.Settings.UpdateSettings)
				ar.Route("/users", func(ur chi.Router) {
					ur.Get("/", h.User.ListUsers)
					ur.Post("/", h.User.CreateUser)
					ur.Get("/{id}", h.User.GetUser)
					ur.Put("/{id}", h.User.UpdateUser)
					ur.Post("/{id}/reset-password", h.User.ResetPassword)
					ur.Delete("/{id}", h.User.DeleteUser)
				})
			})
		})
	})
}
