package main

import (
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/platform/go/authz"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	platformmiddleware "github.com/zenGate-Global/mealvote/platform/go/middleware"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	tenantmiddleware "github.com/zenGate-Global/mealvote/platform/go/tenant/middleware"
)

const adminRole = "admin"

type routerConfig struct {
	requestTimeout time.Duration
	auth           func(http.Handler) http.Handler
	contract       *openapi3.T
	ready          func() error
}

// newRouter mounts health, metrics, docs and the gated /api/v1 surface.
func newRouter(app *application, cfg routerConfig) http.Handler {
	root := chi.NewRouter()
	root.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.requestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	root.Use(platformlogging.RequestLogger(app.logger))
	root.Use(app.metrics.Middleware)

	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ready != nil {
			if err := cfg.ready(); err != nil {
				app.logger.Warn("readiness check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	root.Handle("/metrics", metrics.Handler(app.registry))

	registerDocsRoutes(root, cfg.contract, app.logger)

	api := chi.NewRouter()
	api.Use(cfg.auth)
	api.Use(platformmiddleware.RequestTrace)
	api.Use(tenantmiddleware.WithTenantContext(app.tenantResolver, tenantmiddleware.Config{}))
	api.Use(newContractValidator(cfg.contract, app.logger))

	guard := app.guard

	api.Get("/tenant", app.tenantHandler.Current)
	api.With(guard.RequireRole(adminRole)).Put("/tenant/maintenance", app.tenantHandler.SetMaintenance)
	api.Get("/me/permissions", app.roleHandler.MyPermissions)

	api.Route("/votes", func(r chi.Router) {
		r.With(guard.RequireCapability(authz.CanVote)).Post("/", app.voteHandler.Cast)
		r.With(guard.RequireCapability(authz.CanVote)).Get("/mine", app.voteHandler.Mine)
		r.With(guard.RequireCapability(authz.KitchenView)).Get("/tally", app.voteHandler.Tally)
	})

	api.Route("/suggestions", func(r chi.Router) {
		r.Use(guard.RequireCapability(authz.CanVote))
		r.Get("/", app.suggestionHandler.List)
		r.Post("/", app.suggestionHandler.Create)
		r.Post("/{suggestionId}/votes", app.suggestionHandler.Vote)
	})

	api.Route("/adjustments", func(r chi.Router) {
		r.With(guard.RequireCapability(authz.KitchenView)).Get("/", app.adjustmentHandler.List)
		r.With(guard.RequireCapability(authz.KitchenManage)).Post("/", app.adjustmentHandler.Add)
	})

	api.Route("/statistics", func(r chi.Router) {
		r.Use(guard.RequireCapability(authz.ViewStatistics))
		r.Get("/day", app.statisticsHandler.Day)
		r.Get("/week", app.statisticsHandler.Week)
	})

	api.Route("/shifts", func(r chi.Router) {
		r.Get("/", app.shiftHandler.List)
		r.Get("/{shiftId}", app.shiftHandler.Get)
		r.With(guard.RequireRole(adminRole)).Post("/", app.shiftHandler.Upsert)
	})

	api.Route("/roles", func(r chi.Router) {
		r.Use(guard.RequireRole(adminRole))
		r.Get("/", app.roleHandler.List)
		r.Post("/", app.roleHandler.Create)
		r.Get("/{roleId}", app.roleHandler.Get)
		r.Put("/{roleId}", app.roleHandler.Update)
	})

	root.Mount("/api/v1", api)
	return root
}

// newContractValidator rejects requests that do not match the OpenAPI contract with problem+json.
func newContractValidator(spec *openapi3.T, logger *zap.Logger) func(http.Handler) http.Handler {
	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: platformmiddleware.ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, status int) {
			logger.Debug("contract validation rejected request", zap.Int("status", status), zap.String("message", message))
			problem.Write(w, contractProblem(message, status))
		},
	})
}

func contractProblem(message string, status int) problem.Details {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return problem.New("Forbidden", "authenticated user required", problem.TypeForbidden, http.StatusForbidden)
	case http.StatusNotFound:
		return problem.New("Not found", message, problem.TypeNotFound, http.StatusNotFound)
	case http.StatusMethodNotAllowed:
		return problem.New("Method not allowed", message, problem.TypeValidation, http.StatusMethodNotAllowed)
	default:
		return problem.New("Validation failed", message, problem.TypeValidation, http.StatusBadRequest)
	}
}
