package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/trailbook/internal/booking"
	"github.com/example/trailbook/internal/config"
	domain "github.com/example/trailbook/internal/domain/booking"
)

func newReserveCmd() *cobra.Command {
	var (
		trailID    int64
		dateStr    string
		windowStr  string
		people     int
		modeStr    string
		guideID    int64
		nationalID string
		firstName  string
		lastName   string
		email      string
		phone      string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Book a trail slot through the interactive workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(domain.DateFormat, dateStr)
			if err != nil {
				return fmt.Errorf("--date: want YYYY-MM-DD")
			}
			mode := domain.GuideMode(strings.ToUpper(modeStr))
			if !mode.Valid() {
				return fmt.Errorf("--mode: one of NONE, AUTO, MANUAL")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)
			resolvers, submitter, err := clientFromEnv()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			trail, err := resolvers.Trail(ctx, trailID)
			if err != nil {
				return err
			}

			coord := booking.NewCoordinator(resolvers, submitter, log)
			coord.SetVisitor(domain.Visitor{
				NationalID: nationalID,
				FirstName:  firstName,
				LastName:   lastName,
				Email:      email,
				Phone:      phone,
			})
			coord.SetObservations(notes)
			coord.SetTrail(trail)
			coord.SetDate(date)
			if err := coord.WaitSettled(ctx); err != nil {
				return err
			}

			snap := coord.Snapshot()
			if snap.WindowsErr != nil {
				return snap.WindowsErr
			}
			if len(snap.Windows) == 0 {
				return fmt.Errorf("no bookable windows for %s on %s", trail.Name, dateStr)
			}

			window, err := pickWindow(snap.Windows, windowStr)
			if err != nil {
				return err
			}
			if err := coord.SelectWindow(window); err != nil {
				return err
			}
			if err := coord.WaitSettled(ctx); err != nil {
				return err
			}

			coord.SetPeople(people)
			coord.SetGuideMode(mode)
			if mode == domain.GuideModeManual {
				coord.SelectGuide(guideID)
			}

			res, err := coord.Submit(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("reservation %d created (%s), state %s\n", res.ReservationID, res.ConfirmationCode, res.State)
			if res.Assignment != nil {
				fmt.Printf("guide assigned: %s\n", res.Assignment.Guide.Name)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&trailID, "trail", 0, "trail id")
	cmd.Flags().StringVar(&dateStr, "date", "", "visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&windowStr, "window", "", "time window HH:MM-HH:MM (default: earliest available)")
	cmd.Flags().IntVar(&people, "people", 1, "number of people")
	cmd.Flags().StringVar(&modeStr, "mode", "NONE", "guide mode: NONE, AUTO or MANUAL")
	cmd.Flags().Int64Var(&guideID, "guide", 0, "guide id (MANUAL mode)")
	cmd.Flags().StringVar(&nationalID, "national-id", "", "visitor national id")
	cmd.Flags().StringVar(&firstName, "first-name", "", "visitor first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "visitor last name")
	cmd.Flags().StringVar(&email, "email", "", "visitor email")
	cmd.Flags().StringVar(&phone, "phone", "", "visitor phone")
	cmd.Flags().StringVar(&notes, "notes", "", "observations")
	_ = cmd.MarkFlagRequired("trail")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("national-id")
	return cmd
}

func pickWindow(available []domain.TimeWindow, want string) (domain.TimeWindow, error) {
	if want == "" {
		return available[0], nil
	}
	w, err := domain.ParseWindow(want)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	if !domain.ContainsWindow(available, w) {
		var opts []string
		for _, a := range available {
			opts = append(opts, a.String())
		}
		return domain.TimeWindow{}, fmt.Errorf("window %s not available; options: %s", w, strings.Join(opts, ", "))
	}
	return w, nil
}
