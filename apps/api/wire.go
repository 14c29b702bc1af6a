package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	adjustmentshandler "github.com/zenGate-Global/mealvote/domains/adjustments/be/handler"
	adjustmentsrepo "github.com/zenGate-Global/mealvote/domains/adjustments/be/repo"
	adjustmentsservice "github.com/zenGate-Global/mealvote/domains/adjustments/be/service"
	roleshandler "github.com/zenGate-Global/mealvote/domains/roles/be/handler"
	rolesrepo "github.com/zenGate-Global/mealvote/domains/roles/be/repo"
	rolesservice "github.com/zenGate-Global/mealvote/domains/roles/be/service"
	shiftshandler "github.com/zenGate-Global/mealvote/domains/shifts/be/handler"
	shiftsrepo "github.com/zenGate-Global/mealvote/domains/shifts/be/repo"
	shiftsservice "github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	statisticshandler "github.com/zenGate-Global/mealvote/domains/statistics/be/handler"
	statisticsservice "github.com/zenGate-Global/mealvote/domains/statistics/be/service"
	suggestionshandler "github.com/zenGate-Global/mealvote/domains/suggestions/be/handler"
	suggestionsrepo "github.com/zenGate-Global/mealvote/domains/suggestions/be/repo"
	suggestionsservice "github.com/zenGate-Global/mealvote/domains/suggestions/be/service"
	tenantshandler "github.com/zenGate-Global/mealvote/domains/tenants/be/handler"
	tenantsrepo "github.com/zenGate-Global/mealvote/domains/tenants/be/repo"
	tenantsservice "github.com/zenGate-Global/mealvote/domains/tenants/be/service"
	voteshandler "github.com/zenGate-Global/mealvote/domains/votes/be/handler"
	votesrepo "github.com/zenGate-Global/mealvote/domains/votes/be/repo"
	votesservice "github.com/zenGate-Global/mealvote/domains/votes/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/authz"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

// repositories is the storage backend selected by STORAGE.
type repositories struct {
	tenants     tenantsservice.Repository
	roles       rolesrepo.Repository
	shifts      shiftsrepo.Repository
	votes       votesrepo.Repository
	suggestions suggestionsrepo.Repository
	adjustments adjustmentsrepo.Repository
}

func memoryRepositories() repositories {
	return repositories{
		tenants:     tenantsrepo.NewMemoryRepository(),
		roles:       rolesrepo.NewMemoryRepository(),
		shifts:      shiftsrepo.NewMemoryRepository(),
		votes:       votesrepo.NewMemoryRepository(),
		suggestions: suggestionsrepo.NewMemoryRepository(),
		adjustments: adjustmentsrepo.NewMemoryRepository(),
	}
}

func postgresRepositories(stores persistence.Stores) repositories {
	return repositories{
		tenants:     tenantsrepo.NewPostgresRepository(stores.Tenants),
		roles:       rolesrepo.NewPostgresRepository(stores.Roles),
		shifts:      shiftsrepo.NewPostgresRepository(stores.Shifts),
		votes:       votesrepo.NewPostgresRepository(stores.Votes),
		suggestions: suggestionsrepo.NewPostgresRepository(stores.Suggestions),
		adjustments: adjustmentsrepo.NewPostgresRepository(stores.Adjustments),
	}
}

// application holds every wired component the router needs.
type application struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Recorder

	tenants        *tenantsservice.Service
	tenantResolver *tenant.Resolver
	roles          rolesservice.Service
	permissions    *authz.Resolver
	guard          *authz.Guard

	tenantHandler     *tenantshandler.Handler
	roleHandler       *roleshandler.Handler
	shiftHandler      *shiftshandler.Handler
	voteHandler       *voteshandler.Handler
	suggestionHandler *suggestionshandler.Handler
	adjustmentHandler *adjustmentshandler.Handler
	statisticsHandler *statisticshandler.Handler
}

type appOptions struct {
	defaultTenant tenant.Context
	legacy        authz.LegacyRoleMap
	auditSink     audit.Sink
	seedRoles     bool
	voteOptions   []votesservice.Option
}

// newApplication wires services and handlers over repos, registers the
// default tenant and optionally seeds its roles.
func newApplication(ctx context.Context, repos repositories, opts appOptions, logger *zap.Logger) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)
	auditor := audit.NewRecorder(opts.auditSink)

	tenantService := tenantsservice.New(repos.tenants, auditor)
	if _, err := tenantService.EnsureRegistered(ctx, opts.defaultTenant); err != nil {
		return nil, fmt.Errorf("register default tenant: %w", err)
	}

	roleService := rolesservice.New(repos.roles, auditor)
	if opts.seedRoles {
		res, err := roleService.Seed(ctx, opts.defaultTenant.TenantID)
		if err != nil {
			return nil, fmt.Errorf("seed default roles: %w", err)
		}
		logger.Info("default roles seeded", zap.Int("created", len(res.Created)), zap.Strings("skipped", res.Skipped))
	}

	permissions := authz.NewResolver(rolesrepo.NewRoleSource(repos.roles), opts.legacy, logger.Named("authz"))

	shiftService := shiftsservice.New(repos.shifts, auditor)
	voteService := votesservice.New(repos.votes, shiftService, recorder, auditor, opts.voteOptions...)
	suggestionService := suggestionsservice.New(repos.suggestions, recorder, auditor)
	adjustmentService := adjustmentsservice.New(repos.adjustments, shiftService, recorder, auditor)
	statisticsService := statisticsservice.New(voteService, adjustmentService, shiftService)

	return &application{
		logger:   logger,
		registry: registry,
		metrics:  recorder,

		tenants:        tenantService,
		tenantResolver: tenant.NewResolver(tenantService, opts.defaultTenant, logger.Named("tenant")),
		roles:          roleService,
		permissions:    permissions,
		guard:          authz.NewGuard(permissions, recorder),

		tenantHandler:     tenantshandler.New(tenantService, logger),
		roleHandler:       roleshandler.New(roleService, permissions, logger),
		shiftHandler:      shiftshandler.New(shiftService, logger),
		voteHandler:       voteshandler.New(voteService, recorder, logger),
		suggestionHandler: suggestionshandler.New(suggestionService, logger),
		adjustmentHandler: adjustmentshandler.New(adjustmentService, logger),
		statisticsHandler: statisticshandler.New(statisticsService, recorder, logger),
	}, nil
}

// buildAuditSink logs every event and, when NATS_URL is set, publishes it too.
// The returned close func drains the NATS connection.
func buildAuditSink(cfg config, logger *zap.Logger) (audit.Sink, func(), error) {
	logSink := audit.NewLogSink(logger)
	if cfg.NATSURL == "" {
		return logSink, func() {}, nil
	}

	conn, err := audit.Connect(cfg.NATSURL, "mealvote-api", logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	closeFn := func() {
		if err := conn.Drain(); err != nil && err != nats.ErrConnectionClosed {
			logger.Warn("drain nats connection", zap.Error(err))
		}
	}
	return audit.Multi{logSink, audit.NewNATSSink(conn, cfg.auditPrefix(), logger)}, closeFn, nil
}
