package roles

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/mealvote/apps/cli/cmd/output"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/storeflags"
	"github.com/zenGate-Global/mealvote/domains/roles/be/service"
)

type roleView struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Order       int             `json:"order"`
	Permissions map[string]bool `json:"permissions"`
}

type seedView struct {
	Created []roleView `json:"created"`
	Skipped []string   `json:"skipped"`
}

func toView(r service.Role) roleView {
	return roleView{Code: r.Code, Name: r.Name, Order: r.Order, Permissions: r.Permissions.Map()}
}

// Command groups role table helpers.
func Command() *cobra.Command {
	var (
		flags  storeflags.Flags
		format string
		ref    string
	)

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Role table utilities (seed defaults, list)",
	}
	storeflags.Bind(cmd, &flags)
	output.Bind(cmd, &format)
	cmd.PersistentFlags().StringVar(&ref, "tenant", "", "tenant slug or uuid")
	_ = cmd.MarkPersistentFlagRequired("tenant")

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the default roles the tenant does not have yet",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			res, err := backend.Roles.Seed(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("seed roles: %w", err)
			}

			out := seedView{Created: make([]roleView, 0, len(res.Created)), Skipped: res.Skipped}
			for _, r := range res.Created {
				out.Created = append(out.Created, toView(r))
			}
			if out.Skipped == nil {
				out.Skipped = []string{}
			}
			return output.Print(cmd.OutOrStdout(), format, out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the tenant's roles in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			roles, err := backend.Roles.List(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("list roles: %w", err)
			}
			views := make([]roleView, 0, len(roles))
			for _, r := range roles {
				views = append(views, toView(r))
			}
			return output.Print(cmd.OutOrStdout(), format, views)
		},
	})

	return cmd
}
