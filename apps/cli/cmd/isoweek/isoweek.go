package isoweek

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
)

// Command exposes the ISO week calculator.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "isoweek",
		Short: "ISO-8601 week helpers (labels, Mondays, week days)",
	}

	cmd.AddCommand(labelCommand(), mondayCommand(), daysCommand())
	return cmd
}

func labelCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "label [YYYY-MM-DD]",
		Short:   "Print the week label of a date (defaults to today, UTC)",
		Args:    cobra.MaximumNArgs(1),
		Example: "  mealvote isoweek label 2025-03-12   # 2025-W11",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().UTC()
			if len(args) == 1 {
				parsed, err := isoweek.ParseDate(args[0])
				if err != nil {
					return err
				}
				date = parsed
			}
			fmt.Fprintln(cmd.OutOrStdout(), isoweek.Label(date))
			return nil
		},
	}
}

func mondayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monday YYYY-Www",
		Short: "Print the Monday of a week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			monday, err := isoweek.MondayOf(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), isoweek.FormatDate(monday))
			return nil
		},
	}
}

func daysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "days YYYY-Www",
		Short: "Print the seven dates of a week, Monday first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := isoweek.Parse(args[0])
			if err != nil {
				return err
			}
			for _, d := range week.Days() {
				fmt.Fprintln(cmd.OutOrStdout(), isoweek.FormatDate(d))
			}
			return nil
		},
	}
}
