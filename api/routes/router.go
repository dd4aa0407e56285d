package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/etfuel/etfuel-backend/api/controllers"
	"github.com/etfuel/etfuel-backend/api/middleware"
	"github.com/etfuel/etfuel-backend/internal/auth"
	"github.com/etfuel/etfuel-backend/internal/drivers"
	"github.com/etfuel/etfuel-backend/internal/members"
	"github.com/etfuel/etfuel-backend/internal/reports"
	"github.com/etfuel/etfuel-backend/internal/stations"
	"github.com/etfuel/etfuel-backend/internal/vehicles"
	"github.com/etfuel/etfuel-backend/pkg/auth/session"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/etfuel/etfuel-backend/pkg/logger"
	"github.com/etfuel/etfuel-backend/pkg/metrics"
	"github.com/etfuel/etfuel-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Sessions     session.AccessSessionChecker
	Auth         auth.Service
	Stations     stations.Service
	Vehicles     vehicles.Service
	Drivers      drivers.Service
	Reports      reports.Service
	Members      members.Service
	HTTPMetrics  *metrics.HTTPMetrics
	PromRegistry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/session", controllers.SessionExchange(deps.Auth, logg))
		r.Post("/refresh", controllers.SessionRefresh(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/reset-password", controllers.AuthRequestPasswordReset(deps.Auth, cfg, logg))
		r.Post("/reset-password/confirm", controllers.AuthConfirmPasswordReset(deps.Auth, logg))
		r.Get("/user-data", controllers.ProfileUserData(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Get("/user", controllers.ProfileGet(deps.Auth, logg))
			r.Put("/update-profile", controllers.ProfileUpdate(deps.Auth, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", controllers.StationList(deps.Stations, logg))
			r.Post("/", controllers.StationCreate(deps.Stations, logg))
			r.Get("/{stationId}", controllers.StationGet(deps.Stations, logg))
			r.Put("/{stationId}", controllers.StationUpdate(deps.Stations, logg))
			r.Delete("/{stationId}", controllers.StationDelete(deps.Stations, logg))
			r.Get("/{stationId}/reports", controllers.ReportListByStation(deps.Reports, logg))
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", controllers.VehicleList(deps.Vehicles, logg))
			r.Post("/", controllers.VehicleCreate(deps.Vehicles, logg))
			r.Get("/{vehicleId}", controllers.VehicleGet(deps.Vehicles, logg))
			r.Put("/{vehicleId}", controllers.VehicleUpdate(deps.Vehicles, logg))
			r.Delete("/{vehicleId}", controllers.VehicleDelete(deps.Vehicles, logg))
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", controllers.DriverList(deps.Drivers, logg))
			r.Get("/{driverId}", controllers.DriverGet(deps.Drivers, logg))
			r.Post("/{driverId}/status", controllers.DriverSetStatus(deps.Drivers, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.ReportList(deps.Reports, logg))
			r.Post("/", controllers.ReportFile(deps.Reports, logg))
			r.Post("/{reportId}/status", controllers.ReportSetStatus(deps.Reports, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Put("/users/{userId}", controllers.AdminUserUpdate(deps.Auth, logg))

		r.Route("/members", func(r chi.Router) {
			r.Get("/", controllers.MemberList(deps.Members, logg))
			r.Post("/", controllers.MemberCreate(deps.Members, logg))
			r.Get("/{memberId}", controllers.MemberGet(deps.Members, logg))
			r.Put("/{memberId}", controllers.MemberUpdate(deps.Members, logg))
			r.Delete("/{memberId}", controllers.MemberDelete(deps.Members, logg))
		})
	})

	return r
}
