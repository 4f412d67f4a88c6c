package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contractor-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/contractor-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
}

type Handlers struct {
	Payroll       PayrollHandler
	Settings      SettingsHandler
	Subcontractor SubcontractorHandler
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "contractor-backend"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payroll/runs", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayrollRun)).Post("/", h.Payroll.RunPayroll)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollView))
					r.Get("/", h.Payroll.ListRuns)
					r.Get("/{id}", h.Payroll.GetRun)
					r.Get("/{id}/records", h.Payroll.ListRunRecords)
					r.Get("/{id}/export", h.Payroll.ExportRun)
				})
			})

			r.Route("/settings", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionSettingsView)).Get("/", h.Settings.GetSettings)
				r.With(middleware.RequirePermission(user.PermissionSettingsManage)).Put("/", h.Settings.UpdateSettings)
			})

			r.Route("/subcontractors/assignments/{id}", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionSettlementView)).Get("/settlement", h.Subcontractor.GetSettlement)

				// verify gates both release-holdback and process-payment; those two are independent.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSettlementManage))
					r.Post("/verify", h.Subcontractor.VerifyCompletion)
					r.Post("/release-holdback", h.Subcontractor.ReleaseHoldback)
					r.Post("/process-payment", h.Subcontractor.ProcessPayment)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
