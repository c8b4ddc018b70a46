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

func newReservationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservation",
		Short: "Drive a reservation through its lifecycle",
	}

	cmd.AddCommand(newTransitionCmd("confirm", "Confirm a pending reservation (staff)", domain.ActionConfirm, domain.ActorStaff))
	cmd.AddCommand(newTransitionCmd("cancel", "Cancel a reservation", domain.ActionCancel, domain.ActorVisitor))
	cmd.AddCommand(newTransitionCmd("complete", "Mark a reservation completed after its tour finished (staff)", domain.ActionComplete, domain.ActorStaff))
	cmd.AddCommand(newTransitionCmd("no-show", "Mark a no-show once the visit date has passed (staff)", domain.ActionNoShow, domain.ActorStaff))
	cmd.AddCommand(newReservationListCmd())

	return cmd
}

func newReservationListCmd() *cobra.Command {
	var visitorID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a visitor's reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lifecycleFromEnv()
			if err != nil {
				return err
			}
			rs, err := m.Provider.ListReservationsByVisitor(context.Background(), visitorID)
			if err != nil {
				return err
			}
			for _, r := range rs {
				fmt.Printf("%d\t%s\t%s %s\t%s\tpeople=%d\t%s\n",
					r.ID, r.ConfirmationCode, r.VisitDate.Format(domain.DateFormat), r.Window,
					r.Trail.Name, r.People, r.State)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&visitorID, "visitor", 0, "visitor id")
	_ = cmd.MarkFlagRequired("visitor")
	return cmd
}

func newTransitionCmd(use, short string, action domain.TransitionAction, defaultActor domain.Actor) *cobra.Command {
	var (
		id     int64
		reason string
		staff  bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lifecycleFromEnv()
			if err != nil {
				return err
			}
			actor := defaultActor
			if staff {
				actor = domain.ActorStaff
			}
			res, err := m.TransitionByID(context.Background(), id, action, actor, reason)
			if err != nil {
				return err
			}
			fmt.Printf("reservation %d is now %s\n", res.ID, res.State)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "reservation id")
	cmd.Flags().StringVar(&reason, "reason", "", "reason (cancellations)")
	cmd.Flags().BoolVar(&staff, "staff", false, "act as staff")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func lifecycleFromEnv() (*booking.LifecycleManager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	client := parkapi.New(parkapi.Options{
		BaseURL: cfg.ParkAPIURL,
		APIKey:  cfg.ParkAPIKey,
		Timeout: cfg.ParkAPITimeout,
	})
	return booking.NewLifecycleManager(client), nil
}
