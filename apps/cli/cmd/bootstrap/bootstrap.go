package bootstrap

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/mealvote/apps/cli/cmd/storeflags"
	shiftsservice "github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

// Notes:
// - Every step is check-or-create, so bootstrap can be rerun against a live database.
// - The schema DDL is applied by storeflags.Open before any step runs.

// Command bootstraps a database: schema, a tenant, its default roles and optionally a first shift.
func Command() *cobra.Command {
	var (
		flags      storeflags.Flags
		tenantID   string
		tenantSlug string
		tenantName string
		shift      shiftsservice.UpsertInput
	)

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Apply the schema, register a tenant and seed its roles",
		Long: "Apply the meal vote schema, register the tenant (the API's DEFAULT_TENANT_* values by default), " +
			"seed its default roles and, when --shift-id is given, create a first shift.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid --tenant-id: %w", err)
			}

			ctx := cmd.Context()
			backend, closeFn, err := flags.Open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := backend.Tenants.EnsureRegistered(ctx, tenant.Context{
				TenantID: id,
				Slug:     tenantSlug,
				Name:     tenantName,
				Status:   tenant.StatusActive,
			})
			if err != nil {
				return fmt.Errorf("register tenant: %w", err)
			}

			seeded, err := backend.Roles.Seed(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("seed roles: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema %q ready. Tenant: %s (%s)\n", flags.Schema, t.Slug, t.ID)
			fmt.Fprintf(out, "Roles: %d created, %d already present\n", len(seeded.Created), len(seeded.Skipped))

			if shift.ShiftID == "" {
				return nil
			}
			created, err := backend.Shifts.Upsert(ctx, t.ID, shift)
			if err != nil {
				return fmt.Errorf("upsert shift: %w", err)
			}
			fmt.Fprintf(out, "Shift %s: cutoff %s %s\n", created.ID, created.CutoffTime, created.Timezone)
			return nil
		},
	}

	storeflags.Bind(c, &flags)
	c.Flags().StringVar(&tenantID, "tenant-id", "00000000-0000-0000-0000-000000000001", "tenant uuid")
	c.Flags().StringVar(&tenantSlug, "tenant-slug", "default", "tenant slug")
	c.Flags().StringVar(&tenantName, "tenant-name", "Default", "tenant display name")
	c.Flags().StringVar(&shift.ShiftID, "shift-id", "", "first shift id (optional)")
	c.Flags().StringVar(&shift.Name, "shift-name", "Lunch", "first shift name")
	c.Flags().StringVar(&shift.CutoffTime, "shift-cutoff", "10:00", "first shift cutoff, HH:MM")
	c.Flags().StringVar(&shift.Timezone, "shift-timezone", "UTC", "first shift IANA timezone")
	c.Flags().StringVar(&shift.Schedule, "shift-schedule", "", "first shift RRULE, e.g. FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR")

	return c
}
