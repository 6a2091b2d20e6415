package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/furqon2004/antrian-rs-client/internal/admin"
	"github.com/furqon2004/antrian-rs-client/internal/models"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage hospital resources and view reports",
	}
	cmd.AddCommand(
		newCrudCmd(a, "doctors", "Manage doctors",
			func() crud[models.Doctor] { return a.admin.Doctors }, decodeInput[admin.DoctorInput]),
		newCrudCmd(a, "polys", "Manage polys",
			func() crud[models.Poly] { return a.admin.Polys }, decodeInput[admin.PolyInput]),
		newCrudCmd(a, "staff", "Manage staff accounts",
			func() crud[models.Staff] { return a.admin.Staff }, decodeInput[admin.StaffInput]),
		newCrudCmd(a, "queue-types", "Manage queue types",
			func() crud[models.QueueType] { return a.admin.QueueTypes }, decodeInput[admin.QueueTypeInput]),
		newCrudCmd(a, "service-hours", "Manage poly service hours",
			func() crud[models.ServiceHour] { return a.admin.ServiceHours }, decodeInput[admin.ServiceHourInput]),
		newAdminSchedulesCmd(a),
		newAdminSettingsCmd(a),
		newAdminDashboardCmd(a),
		newAdminReportsCmd(a),
	)
	return cmd
}

// crud matches the admin resource clients; the indirection lets one command
// builder serve every resource.
type crud[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, input any) (T, error)
	Update(ctx context.Context, id string, input any) (T, error)
	Delete(ctx context.Context, id string) error
}

func decodeInput[I any](data string) (any, error) {
	var input I
	if err := json.Unmarshal([]byte(data), &input); err != nil {
		return nil, fmt.Errorf("invalid --data payload: %w", err)
	}
	return input, nil
}

func newCrudCmd[T any](a *app, name, short string, res func() crud[T], decode func(string) (any, error)) *cobra.Command {
	cmd := &cobra.Command{Use: name, Short: short}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all " + name,
		RunE: func(c *cobra.Command, args []string) error {
			items, err := res().List(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			item, err := res().Get(c.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), item)
		},
	})

	var createData string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from a JSON payload",
		RunE: func(c *cobra.Command, args []string) error {
			input, err := decode(createData)
			if err != nil {
				return err
			}
			item, err := res().Create(c.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), item)
		},
	}
	createCmd.Flags().StringVar(&createData, "data", "", "JSON payload")
	createCmd.MarkFlagRequired("data")
	cmd.AddCommand(createCmd)

	var updateData string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record from a JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			input, err := decode(updateData)
			if err != nil {
				return err
			}
			item, err := res().Update(c.Context(), args[0], input)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), item)
		},
	}
	updateCmd.Flags().StringVar(&updateData, "data", "", "JSON payload")
	updateCmd.MarkFlagRequired("data")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := res().Delete(c.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "deleted")
			return nil
		},
	})

	return cmd
}

// Schedules only support writes; reads go through the doctors listing where
// schedules come nested.
func newAdminSchedulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "schedules", Short: "Manage doctor schedules"}

	var createData string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule from a JSON payload",
		RunE: func(c *cobra.Command, args []string) error {
			var input admin.ScheduleInput
			if err := json.Unmarshal([]byte(createData), &input); err != nil {
				return fmt.Errorf("invalid --data payload: %w", err)
			}
			schedule, err := a.admin.CreateSchedule(c.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), schedule)
		},
	}
	createCmd.Flags().StringVar(&createData, "data", "", "JSON payload")
	createCmd.MarkFlagRequired("data")
	cmd.AddCommand(createCmd)

	var updateData string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a schedule from a JSON payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var input admin.ScheduleInput
			if err := json.Unmarshal([]byte(updateData), &input); err != nil {
				return fmt.Errorf("invalid --data payload: %w", err)
			}
			schedule, err := a.admin.UpdateSchedule(c.Context(), args[0], input)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), schedule)
		},
	}
	updateCmd.Flags().StringVar(&updateData, "data", "", "JSON payload")
	updateCmd.MarkFlagRequired("data")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := a.admin.DeleteSchedule(c.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "deleted")
			return nil
		},
	})

	return cmd
}

func newAdminSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Manage system settings"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show all system settings",
		RunE: func(c *cobra.Command, args []string) error {
			values, err := a.admin.SystemSettings(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), values)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			if err := a.admin.UpdateSystemSetting(c.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "updated")
			return nil
		},
	})

	var bulkData string
	bulkCmd := &cobra.Command{
		Use:   "set-bulk",
		Short: "Update several settings in one request",
		RunE: func(c *cobra.Command, args []string) error {
			var updates []admin.SettingUpdate
			if err := json.Unmarshal([]byte(bulkData), &updates); err != nil {
				return fmt.Errorf("invalid --data payload: %w", err)
			}
			if err := a.admin.UpdateSystemSettings(c.Context(), updates); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "updated")
			return nil
		},
	}
	bulkCmd.Flags().StringVar(&bulkData, "data", "", `JSON array of {"key","value"} objects`)
	bulkCmd.MarkFlagRequired("data")
	cmd.AddCommand(bulkCmd)

	return cmd
}

func newAdminDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Hospital-wide numbers for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.admin.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			summary := admin.Summarize(stats)
			peak := a.admin.PeakHours(cmd.Context(), summary.TotalToday)
			return printJSON(cmd.OutOrStdout(), struct {
				Polys     []admin.PolyStats `json:"polys"`
				Summary   admin.Summary     `json:"summary"`
				PeakHours []admin.PeakHour  `json:"peak_hours"`
			}{stats, summary, peak})
		},
	}
}

func newAdminReportsCmd(a *app) *cobra.Command {
	var startStr, endStr string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Date-ranged reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			end := time.Now()
			start := end.AddDate(0, 0, -30)
			var err error
			if startStr != "" {
				if start, err = time.Parse("2006-01-02", startStr); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}
			if endStr != "" {
				if end, err = time.Parse("2006-01-02", endStr); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}
			reports := a.admin.AllReports(cmd.Context(), admin.DateRange{Start: start, End: end})
			return printJSON(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD), default 30 days ago")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD), default today")
	return cmd
}
