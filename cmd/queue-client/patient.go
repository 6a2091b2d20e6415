package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/furqon2004/antrian-rs-client/internal/models"
	"github.com/furqon2004/antrian-rs-client/internal/ticket"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as staff or admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.Authenticated() {
				return errors.New("not logged in")
			}
			return printJSON(cmd.OutOrStdout(), struct {
				User  *models.User  `json:"user"`
				Staff *models.Staff `json:"staff,omitempty"`
				Poly  *models.Poly  `json:"poly,omitempty"`
			}{a.session.User(), a.session.Staff(), a.session.Poly()})
		},
	}
}

func newTicketCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Take, track and cancel queue tickets",
	}
	cmd.AddCommand(
		newTicketTakeCmd(a),
		newTicketStatusCmd(a),
		newTicketListCmd(a),
		newTicketHistoryCmd(a),
		newTicketCancelCmd(a),
		newTicketSyncCmd(a),
	)
	return cmd
}

func newTicketTakeCmd(a *app) *cobra.Command {
	var queueTypeID, name, payment, doctorID string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a new queue ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ticket.CreateInput{
				QueueType:   models.QueueType{ID: queueTypeID},
				PatientName: name,
				PaymentType: payment,
				DoctorID:    doctorID,
			}
			// Resolve the queue type so the cached ticket carries its
			// name, not just an opaque id.
			if types, err := a.info.QueueTypes(cmd.Context()); err == nil {
				for _, qt := range types {
					if qt.ID == queueTypeID {
						input.QueueType = qt
						break
					}
				}
			}

			tk, err := a.tickets.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tk)
		},
	}
	cmd.Flags().StringVar(&queueTypeID, "queue-type", "", "queue type id")
	cmd.Flags().StringVar(&name, "name", "", "patient name")
	cmd.Flags().StringVar(&payment, "payment", "UMUM", "payment type (BPJS or UMUM)")
	cmd.Flags().StringVar(&doctorID, "doctor", "", "preferred doctor id")
	cmd.MarkFlagRequired("queue-type")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newTicketStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [token]",
		Short: "Show queue position and estimated wait",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key, queueTypeID string
			if len(args) == 1 {
				key = args[0]
			} else {
				active, ok, err := a.tickets.Active()
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("no active ticket; pass a token")
				}
				key = active.Token
				if key == "" {
					key = active.ID
				}
				queueTypeID = active.QueueTypeID
			}

			result := a.checker.Check(cmd.Context(), key, queueTypeID)
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newTicketListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tickets, err := a.repo.Tickets()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tickets)
		},
	}
}

func newTicketHistoryCmd(a *app) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				return a.repo.ClearHistory()
			}
			history, err := a.repo.History()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), history)
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the history instead of listing it")
	return cmd
}

func newTicketCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <token>",
		Short: "Cancel a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tickets.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ticket cancelled")
			return nil
		},
	}
}

func newTicketSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile cached tickets against the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tickets.SyncStatuses(cmd.Context()); err != nil {
				return err
			}
			tickets, err := a.repo.Tickets()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tickets)
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Public hospital information",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "queue-types",
		Short: "List queue types open today",
		RunE: func(c *cobra.Command, args []string) error {
			types, err := a.info.QueueTypes(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), types)
		},
	})

	var forcePolys bool
	polysCmd := &cobra.Command{
		Use:   "polys",
		Short: "List polys",
		RunE: func(c *cobra.Command, args []string) error {
			polys, err := a.info.Polys(c.Context(), forcePolys)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), polys)
		},
	}
	polysCmd.Flags().BoolVar(&forcePolys, "refresh", false, "bypass the local cache")
	cmd.AddCommand(polysCmd)

	var polyID string
	doctorsCmd := &cobra.Command{
		Use:   "doctors",
		Short: "List doctors on duty today",
		RunE: func(c *cobra.Command, args []string) error {
			doctors, err := a.info.DoctorsOnDuty(c.Context(), polyID)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), doctors)
		},
	}
	doctorsCmd.Flags().StringVar(&polyID, "poly", "", "restrict to one poly id")
	cmd.AddCommand(doctorsCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "settings",
		Short: "Show effective system settings",
		RunE: func(c *cobra.Command, args []string) error {
			return printJSON(c.OutOrStdout(), a.settings.Fetch(c.Context(), true))
		},
	})

	return cmd
}
