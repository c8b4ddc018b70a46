package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/trailbook/internal/booking"
	"github.com/example/trailbook/internal/config"
	domain "github.com/example/trailbook/internal/domain/booking"
	"github.com/example/trailbook/internal/parkapi"
)

func newAvailabilityCmd() *cobra.Command {
	var (
		trailID int64
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show remaining capacity and bookable windows for a trail and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(domain.DateFormat, dateStr)
			if err != nil {
				return fmt.Errorf("--date: want YYYY-MM-DD")
			}

			resolvers, _, err := clientFromEnv()
			if err != nil {
				return err
			}
			ctx := context.Background()

			trail, err := resolvers.Trail(ctx, trailID)
			if err != nil {
				return err
			}
			capacity, err := resolvers.RemainingCapacity(ctx, trailID, date)
			if err != nil {
				return err
			}
			windows, err := resolvers.TimeWindows(ctx, trailID, date)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s) on %s\n", trail.Name, trail.Difficulty, dateStr)
			fmt.Printf("remaining capacity: %d of %d\n", capacity, trail.DailyCapacity)
			if trail.RequiresGuide {
				fmt.Println("guide required")
			}
			if len(windows) == 0 {
				fmt.Println("no bookable windows: fully booked or no schedule for this date")
				return nil
			}
			for _, w := range windows {
				fmt.Printf("  %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&trailID, "trail", 0, "trail id")
	cmd.Flags().StringVar(&dateStr, "date", "", "visit date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("trail")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// clientFromEnv builds the resolver/submitter pair the one-shot commands
// share. No database involved.
func clientFromEnv() (*booking.Resolvers, *booking.Submitter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client := parkapi.New(parkapi.Options{
		BaseURL: cfg.ParkAPIURL,
		APIKey:  cfg.ParkAPIKey,
		Timeout: cfg.ParkAPITimeout,
	})
	return booking.NewResolvers(client), booking.NewSubmitter(client), nil
}
