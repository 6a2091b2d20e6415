package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/furqon2004/antrian-rs-client/internal/admin"
	"github.com/furqon2004/antrian-rs-client/internal/api"
	"github.com/furqon2004/antrian-rs-client/internal/auth"
	"github.com/furqon2004/antrian-rs-client/internal/config"
	"github.com/furqon2004/antrian-rs-client/internal/geo"
	"github.com/furqon2004/antrian-rs-client/internal/info"
	"github.com/furqon2004/antrian-rs-client/internal/queue"
	"github.com/furqon2004/antrian-rs-client/internal/settings"
	"github.com/furqon2004/antrian-rs-client/internal/staff"
	"github.com/furqon2004/antrian-rs-client/internal/storage"
	"github.com/furqon2004/antrian-rs-client/internal/storage/file"
	"github.com/furqon2004/antrian-rs-client/internal/telemetry"
	"github.com/furqon2004/antrian-rs-client/internal/ticket"
)

// app wires the API client through every service once per invocation.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	session  *auth.Session
	settings *settings.Service
	checker  *queue.Checker
	repo     storage.TicketRepository
	tickets  *ticket.Service
	info     *info.Service
	staff    *staff.Service
	admin    *admin.Service
	shutdown func(context.Context) error
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	a.shutdown = telemetry.Setup("antrian-rs-client", cfg.OTLPEndpoint, cfg.OTLPInsecure, a.logger)

	client := api.New(cfg.APIBaseURL, api.Options{
		Timeout: cfg.RequestTimeout,
		Logger:  a.logger,
	})
	refreshClient := api.New(cfg.APIBaseURL, api.Options{
		Timeout: cfg.RequestTimeout,
		Logger:  a.logger,
	})
	a.session = auth.NewSession(client, refreshClient, cfg.SessionPath())
	client.SetTokens(a.session)

	a.settings = settings.NewService(client, cfg.DataDir, a.logger)
	a.checker = queue.NewChecker(client, a.logger)

	locator := geo.FixedLocator{}
	if cfg.HasLocation() {
		locator.Position = geo.Point{Latitude: cfg.LocationLat, Longitude: cfg.LocationLng}
	}
	repo := file.NewStore(cfg.DataDir)
	a.tickets = ticket.NewService(client, repo, a.settings, a.checker, locator, a.logger)
	a.repo = repo

	a.info = info.NewService(client, cfg.DataDir, a.logger)
	a.staff = staff.NewService(client, a.logger)
	a.admin = admin.NewService(client, a.logger, a.settings.Invalidate)
	return nil
}

func (a *app) close() {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.shutdown(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "queue-client",
		Short:         "Hospital queue client for patients, staff and admins",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTicketCmd(a),
		newInfoCmd(a),
		newStaffCmd(a),
		newAdminCmd(a),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
