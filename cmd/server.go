package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/trailbook/internal/booking"
	"github.com/example/trailbook/internal/config"
	"github.com/example/trailbook/internal/db"
	"github.com/example/trailbook/internal/jobs"
	"github.com/example/trailbook/internal/migrate"
	"github.com/example/trailbook/internal/parkapi"
	"github.com/example/trailbook/internal/scheduler"
	"github.com/example/trailbook/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the JSON console + submission scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			client := parkapi.New(parkapi.Options{
				BaseURL: cfg.ParkAPIURL,
				APIKey:  cfg.ParkAPIKey,
				Timeout: cfg.ParkAPITimeout,
			})
			resolvers := booking.NewResolvers(client)
			submitter := booking.NewSubmitter(client)
			jobRepo := jobs.NewRepo(d)

			s := &scheduler.Scheduler{
				Repo:      jobRepo,
				Resolvers: resolvers,
				Submitter: submitter,
				Interval:  cfg.PollInterval,
				Log:       log.With().Str("component", "scheduler").Logger(),
			}
			go func() { _ = s.Run(ctx) }()

			ws := &web.Server{
				Resolvers: resolvers,
				Submitter: submitter,
				Lifecycle: booking.NewLifecycleManager(client),
				Tours:     booking.NewTourManager(client),
				Jobs:      jobRepo,
				Log:       log.With().Str("component", "web").Logger(),
			}
			log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
