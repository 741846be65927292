package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/bizdesk/bizdesk-backend-go/internal/handler/http/middleware"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	attendanceHandler AttendanceHandler,
	timingHandler TimingHandler,
	payrollHandler PayrollHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "bizdesk-backend"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", attendanceHandler.CheckIn)
				r.Post("/check-out", attendanceHandler.CheckOut)
				r.Get("/my", attendanceHandler.GetMyAttendance)
				r.Get("/{id}/overtime-eligibility", attendanceHandler.OvertimeEligibility)

				// Manager and above
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Get("/", attendanceHandler.List)
					r.Get("/{id}", attendanceHandler.Get)
					r.Put("/{id}", attendanceHandler.Update)
				})
			})

			r.Route("/timing", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Route("/policies", func(r chi.Router) {
					r.Get("/", timingHandler.ListPolicies)
					r.Put("/", timingHandler.UpsertPolicy)
				})
				r.Route("/offices", func(r chi.Router) {
					r.Get("/", timingHandler.ListOffices)
					r.Post("/", timingHandler.CreateOffice)
					r.Put("/{id}", timingHandler.UpdateOffice)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/process", payrollHandler.Process)
				r.Get("/", payrollHandler.List)
				r.Get("/export", payrollHandler.Export)
				r.Post("/transition", payrollHandler.Transition)
				r.Get("/{id}", payrollHandler.Get)

				r.Route("/salary-structures", func(r chi.Router) {
					r.Post("/", payrollHandler.UpsertSalaryStructure)
					r.Get("/{employeeID}", payrollHandler.ListSalaryStructures)
				})

				r.Route("/settings", func(r chi.Router) {
					r.Get("/", payrollHandler.GetSettings)
					r.Put("/", payrollHandler.UpdateSettings)
				})
			})
		})
	})

	return r
}
