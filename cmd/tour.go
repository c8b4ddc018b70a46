package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/trailbook/internal/booking"
	"github.com/example/trailbook/internal/config"
	domain "github.com/example/trailbook/internal/domain/booking"
	"github.com/example/trailbook/internal/parkapi"
)

func newTourCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Guide-side tour execution: start, finish, rate",
	}
	cmd.AddCommand(newTourStartCmd())
	cmd.AddCommand(newTourFinishCmd())
	cmd.AddCommand(newTourRateCmd())
	return cmd
}

func newTourStartCmd() *cobra.Command {
	var (
		id    int64
		notes string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tour; the park records the real start time",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := toursFromEnv()
			if err != nil {
				return err
			}
			a, err := m.Start(context.Background(), id, notes)
			if err != nil {
				return err
			}
			fmt.Printf("tour %d started at %s\n", a.ID, a.StartedAt.Format("15:04:05"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "assignment", 0, "assignment id")
	cmd.Flags().StringVar(&notes, "notes", "", "start observations (weather, group state)")
	_ = cmd.MarkFlagRequired("assignment")
	return cmd
}

func newTourFinishCmd() *cobra.Command {
	var (
		id       int64
		notes    string
		incident string
	)
	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Finish the tour with the guide's report",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := toursFromEnv()
			if err != nil {
				return err
			}
			report := domain.TourReport{
				Observations:        notes,
				HadIncident:         incident != "",
				IncidentDescription: incident,
			}
			a, err := m.Finish(context.Background(), id, report)
			if err != nil {
				return err
			}
			fmt.Printf("tour %d finished at %s\n", a.ID, a.FinishedAt.Format("15:04:05"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "assignment", 0, "assignment id")
	cmd.Flags().StringVar(&notes, "notes", "", "closing observations (required)")
	cmd.Flags().StringVar(&incident, "incident", "", "incident description, if any occurred")
	_ = cmd.MarkFlagRequired("assignment")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func newTourRateCmd() *cobra.Command {
	var (
		id      int64
		rating  int
		comment string
	)
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate a finished tour (visitor)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := toursFromEnv()
			if err != nil {
				return err
			}
			a, err := m.Rate(context.Background(), id, rating, comment)
			if err != nil {
				return err
			}
			fmt.Printf("tour %d rated %d/5\n", a.ID, rating)
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "assignment", 0, "assignment id")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating 1-5")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")
	_ = cmd.MarkFlagRequired("assignment")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func toursFromEnv() (*booking.TourManager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	client := parkapi.New(parkapi.Options{
		BaseURL: cfg.ParkAPIURL,
		APIKey:  cfg.ParkAPIKey,
		Timeout: cfg.ParkAPITimeout,
	})
	return booking.NewTourManager(client), nil
}
