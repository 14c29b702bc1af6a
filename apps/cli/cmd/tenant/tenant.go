package tenantcmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/mealvote/apps/cli/cmd/output"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/storeflags"
	"github.com/zenGate-Global/mealvote/domains/tenants/be/service"
)

// tenantView is the printed form of a registry entry.
type tenantView struct {
	TenantID    uuid.UUID  `json:"tenantId"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Maintenance bool       `json:"maintenance"`
	Until       *time.Time `json:"maintenanceUntil,omitempty"`
}

func toView(t service.Tenant) tenantView {
	return tenantView{
		TenantID:    t.ID,
		Slug:        t.Slug,
		Name:        t.Name,
		Status:      string(t.Status),
		Maintenance: t.Maintenance.Active,
		Until:       t.Maintenance.Until,
	}
}

// Command groups tenant registry helpers.
func Command() *cobra.Command {
	var (
		flags  storeflags.Flags
		format string
	)

	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant registry utilities (register, list, maintenance)",
	}
	storeflags.Bind(cmd, &flags)
	output.Bind(cmd, &format)

	cmd.AddCommand(registerCommand(&flags, &format), listCommand(&flags, &format), maintenanceCommand(&flags, &format))
	return cmd
}

func registerCommand(flags *storeflags.Flags, format *string) *cobra.Command {
	var (
		tenantID string
		input    service.RegisterInput
	)

	c := &cobra.Command{
		Use:   "register",
		Short: "Create a tenant or refresh its name, slug and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID != "" {
				id, err := uuid.Parse(tenantID)
				if err != nil {
					return fmt.Errorf("invalid --tenant-id: %w", err)
				}
				input.ID = &id
			}

			ctx := cmd.Context()
			backend, closeFn, err := flags.Open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := backend.Tenants.Register(ctx, input)
			if err != nil {
				return fmt.Errorf("register tenant: %w", err)
			}
			return output.Print(cmd.OutOrStdout(), *format, toView(t))
		},
	}

	c.Flags().StringVar(&tenantID, "tenant-id", "", "tenant uuid (optional; generated when empty)")
	c.Flags().StringVar(&input.Slug, "slug", "", "tenant slug (lowercase letters, digits, hyphens)")
	c.Flags().StringVar(&input.Name, "name", "", "display name")
	c.Flags().StringVar(&input.Status, "status", "active", "active, suspended, trial or expired")

	_ = c.MarkFlagRequired("slug")
	_ = c.MarkFlagRequired("name")
	return c
}

func listCommand(flags *storeflags.Flags, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, closeFn, err := flags.Open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			tenants, err := backend.Tenants.List(ctx)
			if err != nil {
				return fmt.Errorf("list tenants: %w", err)
			}
			views := make([]tenantView, 0, len(tenants))
			for _, t := range tenants {
				views = append(views, toView(t))
			}
			return output.Print(cmd.OutOrStdout(), *format, views)
		},
	}
}

func maintenanceCommand(flags *storeflags.Flags, format *string) *cobra.Command {
	var (
		ref   string
		input service.MaintenanceInput
		until time.Duration
	)

	c := &cobra.Command{
		Use:   "maintenance",
		Short: "Open or close a tenant's maintenance window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Active && until > 0 {
				end := time.Now().UTC().Add(until)
				input.Until = &end
			}

			ctx := cmd.Context()
			backend, closeFn, err := flags.Open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := backend.ResolveTenant(ctx, ref)
			if err != nil {
				return err
			}
			updated, err := backend.Tenants.SetMaintenance(ctx, t.ID, input)
			if err != nil {
				return fmt.Errorf("set maintenance: %w", err)
			}
			return output.Print(cmd.OutOrStdout(), *format, toView(updated))
		},
	}

	c.Flags().StringVar(&ref, "tenant", "", "tenant slug or uuid")
	c.Flags().BoolVar(&input.Active, "active", true, "open (true) or close (false) the window")
	c.Flags().StringVar(&input.Message, "message", "", "message shown to callers while active")
	c.Flags().DurationVar(&until, "for", 0, "close automatically after this long (e.g. 2h)")

	_ = c.MarkFlagRequired("tenant")
	return c
}
