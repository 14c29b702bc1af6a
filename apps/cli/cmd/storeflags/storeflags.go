// Package storeflags binds the database flags shared by CLI commands and
// wires the domain services over the resulting stores.
package storeflags

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	adjustmentsrepo "github.com/zenGate-Global/mealvote/domains/adjustments/be/repo"
	adjustmentsservice "github.com/zenGate-Global/mealvote/domains/adjustments/be/service"
	rolesrepo "github.com/zenGate-Global/mealvote/domains/roles/be/repo"
	rolesservice "github.com/zenGate-Global/mealvote/domains/roles/be/service"
	shiftsrepo "github.com/zenGate-Global/mealvote/domains/shifts/be/repo"
	shiftsservice "github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	statisticsservice "github.com/zenGate-Global/mealvote/domains/statistics/be/service"
	tenantsrepo "github.com/zenGate-Global/mealvote/domains/tenants/be/repo"
	tenantsservice "github.com/zenGate-Global/mealvote/domains/tenants/be/service"
	votesrepo "github.com/zenGate-Global/mealvote/domains/votes/be/repo"
	votesservice "github.com/zenGate-Global/mealvote/domains/votes/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
)

// Flags locate the database.
type Flags struct {
	DatabaseURL string
	Schema      string
}

// Bind registers --database-url and --schema on cmd, defaulting to DATABASE_URL and DATABASE_SCHEMA.
func Bind(cmd *cobra.Command, f *Flags) {
	schema := os.Getenv("DATABASE_SCHEMA")
	if schema == "" {
		schema = "mealvote"
	}
	cmd.PersistentFlags().StringVar(&f.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (env DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&f.Schema, "schema", schema, "schema holding the meal vote tables (env DATABASE_SCHEMA)")
}

// Backend is every service a CLI command may need, sharing one pool.
type Backend struct {
	Stores      persistence.Stores
	Tenants     *tenantsservice.Service
	Roles       rolesservice.Service
	Shifts      shiftsservice.Service
	Votes       votesservice.Service
	Adjustments adjustmentsservice.Service
	Statistics  statisticsservice.Service
}

// Open connects, bootstraps the schema and wires the services. Mutations are
// audited through the structured logger. The returned func releases the pool.
func (f Flags) Open(ctx context.Context) (*Backend, func(), error) {
	if strings.TrimSpace(f.DatabaseURL) == "" {
		return nil, nil, errors.New("--database-url (or DATABASE_URL) is required")
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "cli",
		Level:     "info",
		Format:    "console",
		Output:    os.Stderr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: f.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("init pool: %w", err)
	}
	closeFn := func() {
		persistence.ClosePool(pool)
		_ = logger.Sync()
	}

	stores, err := persistence.OpenStores(ctx, pool, f.Schema)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	auditor := audit.NewRecorder(audit.NewLogSink(logger.Named("audit")))
	shifts := shiftsservice.New(shiftsrepo.NewPostgresRepository(stores.Shifts), auditor)
	votes := votesservice.New(votesrepo.NewPostgresRepository(stores.Votes), shifts, nil, auditor)
	adjustments := adjustmentsservice.New(adjustmentsrepo.NewPostgresRepository(stores.Adjustments), shifts, nil, auditor)

	return &Backend{
		Stores:      stores,
		Tenants:     tenantsservice.New(tenantsrepo.NewPostgresRepository(stores.Tenants), auditor),
		Roles:       rolesservice.New(rolesrepo.NewPostgresRepository(stores.Roles), auditor),
		Shifts:      shifts,
		Votes:       votes,
		Adjustments: adjustments,
		Statistics:  statisticsservice.New(votes, adjustments, shifts),
	}, closeFn, nil
}

// ResolveTenant accepts a tenant uuid or slug.
func (b *Backend) ResolveTenant(ctx context.Context, ref string) (tenantsservice.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return b.Tenants.Get(ctx, id)
	}
	return b.Tenants.FindBySlug(ctx, ref)
}
