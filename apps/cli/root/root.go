package root

import (
	"context"

	"github.com/spf13/cobra"
)

// rootCmd is the base command; subpackages attach their commands in wire.go.
var rootCmd = &cobra.Command{
	Use:   "mealvote",
	Short: "Meal vote admin CLI",
	Long: "Administrative utilities for the meal vote service: tenant registration and maintenance, " +
		"role seeding, statistics and report export, ISO week helpers and dev tokens.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI; ctx is handed to every command through cmd.Context().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
