package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/furqon2004/antrian-rs-client/internal/models"
	"github.com/furqon2004/antrian-rs-client/internal/staff"
)

func newStaffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Run the queue for your poly",
	}
	cmd.AddCommand(
		newStaffQueueCmd(a),
		newStaffSkippedCmd(a),
		newStaffCallNextCmd(a),
		newStaffActionCmd(a, "skip", "Skip the called ticket", (*staff.Service).Skip),
		newStaffActionCmd(a, "recall", "Call the same ticket again", (*staff.Service).Recall),
		newStaffActionCmd(a, "recall-skipped", "Return a skipped ticket to the queue", (*staff.Service).RecallSkipped),
		newStaffActionCmd(a, "start", "Start serving the called ticket", (*staff.Service).StartService),
		newStaffActionCmd(a, "finish", "Finish serving the current ticket", (*staff.Service).FinishService),
		newStaffDashboardCmd(a),
	)
	return cmd
}

func newStaffQueueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show today's queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			tickets, err := a.staff.Queue(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tickets)
		},
	}
}

func newStaffSkippedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "skipped",
		Short: "Show skipped tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tickets, err := a.staff.Skipped(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tickets)
		},
	}
}

func newStaffCallNextCmd(a *app) *cobra.Command {
	var doctorID string
	cmd := &cobra.Command{
		Use:   "call-next",
		Short: "Call the next waiting ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			called, err := a.staff.CallNext(cmd.Context(), doctorID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), called)
		},
	}
	cmd.Flags().StringVar(&doctorID, "doctor", "", "call for a specific doctor")
	return cmd
}

type staffAction func(*staff.Service, context.Context, string) (models.Ticket, error)

func newStaffActionCmd(a *app, name, short string, action staffAction) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <ticket-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := action(a.staff, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		},
	}
}

func newStaffDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Today's numbers for your poly",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.staff.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
