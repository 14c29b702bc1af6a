package stats

import (
	"bytes"
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/mealvote/apps/cli/cmd/output"
	"github.com/zenGate-Global/mealvote/apps/cli/cmd/storeflags"
	"github.com/zenGate-Global/mealvote/domains/statistics/be/handler"
	"github.com/zenGate-Global/mealvote/domains/statistics/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/storage"
)

// Command prints day and week statistics straight from storage.
func Command() *cobra.Command {
	var (
		flags   storeflags.Flags
		format  string
		ref     string
		shiftID string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute day or week statistics for a tenant's shift",
	}
	storeflags.Bind(cmd, &flags)
	output.Bind(cmd, &format)
	cmd.PersistentFlags().StringVar(&ref, "tenant", "", "tenant slug or uuid")
	cmd.PersistentFlags().StringVar(&shiftID, "shift", "", "shift id")
	_ = cmd.MarkPersistentFlagRequired("tenant")
	_ = cmd.MarkPersistentFlagRequired("shift")

	cmd.AddCommand(&cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "Statistics for one date",
		Args:  cobra.ExactArgs(1),
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
			day, err := backend.Statistics.ComputeDayStatistics(ctx, t.ID, service.DayInput{Date: args[0], ShiftID: shiftID})
			if err != nil {
				return fmt.Errorf("compute day statistics: %w", err)
			}
			return output.Print(cmd.OutOrStdout(), format, handler.NewDayStatistics(day))
		},
	})

	cmd.AddCommand(weekCommand(&flags, &format, &ref, &shiftID))

	return cmd
}

type exportFlags struct {
	bucket   string
	prefix   string
	localDir string
}

func weekCommand(flags *storeflags.Flags, format, ref, shiftID *string) *cobra.Command {
	var export exportFlags

	c := &cobra.Command{
		Use:   "week YYYY-Www",
		Short: "Statistics for one ISO week, optionally archived as a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, closeFn, err := flags.Open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			t, err := backend.ResolveTenant(ctx, *ref)
			if err != nil {
				return err
			}
			week, err := backend.Statistics.ComputeWeekStatistics(ctx, t.ID, service.WeekInput{Week: args[0], ShiftID: *shiftID})
			if err != nil {
				return fmt.Errorf("compute week statistics: %w", err)
			}

			report := handler.NewWeekStatistics(week)
			if export.bucket != "" {
				if err := exportReport(ctx, export, t.Slug, *format, report); err != nil {
					return err
				}
			}
			return output.Print(cmd.OutOrStdout(), *format, report)
		},
	}

	c.Flags().StringVar(&export.bucket, "export-bucket", "", "archive the report in this bucket")
	c.Flags().StringVar(&export.prefix, "export-prefix", "", "object prefix inside the bucket (e.g. prod)")
	c.Flags().StringVar(&export.localDir, "export-local-dir", "", "write the bucket layout under this directory instead of GCS")
	return c
}

// exportReport stores report at <prefix>/<tenant>/statistics/<shift>/<week>.<format>.
func exportReport(ctx context.Context, export exportFlags, tenantSlug, format string, report handler.WeekStatistics) error {
	if format == "" {
		format = output.JSON
	}
	loc, err := storage.ResolveObjectLocation(export.bucket, export.prefix, tenantSlug,
		storage.WeekReportKey(report.ShiftID, report.WeekOfISO, format))
	if err != nil {
		return fmt.Errorf("resolve report location: %w", err)
	}

	var buf bytes.Buffer
	if err := output.Print(&buf, format, report); err != nil {
		return err
	}
	contentType := "application/json"
	if format == output.YAML {
		contentType = "application/yaml"
	}

	var writer storage.Writer
	if export.localDir != "" {
		writer = storage.NewLocalWriter(export.localDir)
	} else {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		defer client.Close()
		writer = storage.NewGCSWriter(client)
	}

	if err := writer.Put(ctx, loc, contentType, buf.Bytes()); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	return nil
}
