package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/trailbook/internal/config"
	"github.com/example/trailbook/internal/db"
	domain "github.com/example/trailbook/internal/domain/booking"
	"github.com/example/trailbook/internal/jobs"
	"github.com/example/trailbook/internal/migrate"
)

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage scheduled reservation submissions",
	}
	cmd.AddCommand(newJobAddCmd())
	cmd.AddCommand(newJobListCmd())
	return cmd
}

func newJobAddCmd() *cobra.Command {
	var (
		name        string
		trailID     int64
		dateStr     string
		windowStr   string
		people      int
		modeStr     string
		guideID     int64
		nationalID  string
		firstName   string
		lastName    string
		email       string
		phone       string
		openAtStr   string
		windowMin   int
		intervalSec int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a reservation to be submitted when its attempt window opens",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(domain.DateFormat, dateStr)
			if err != nil {
				return fmt.Errorf("--date: want YYYY-MM-DD")
			}
			window, err := domain.ParseWindow(windowStr)
			if err != nil {
				return err
			}
			openAt, err := time.Parse(time.RFC3339, openAtStr)
			if err != nil {
				return fmt.Errorf("--open-at: want RFC3339, e.g. 2026-09-01T08:00:00Z")
			}
			mode := domain.GuideMode(strings.ToUpper(modeStr))

			repo, closeDB, err := jobRepoFromEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			j := jobs.Job{
				Name: name,
				Visitor: domain.Visitor{
					NationalID: nationalID,
					FirstName:  firstName,
					LastName:   lastName,
					Email:      email,
					Phone:      phone,
				},
				TrailID:       trailID,
				VisitDate:     date,
				Window:        window,
				People:        people,
				Mode:          mode,
				GuideID:       guideID,
				WindowStartAt: openAt,
				WindowEndAt:   openAt.Add(time.Duration(windowMin) * time.Minute),
				IntervalSec:   intervalSec,
			}
			id, err := repo.Create(cmd.Context(), j)
			if err != nil {
				return err
			}
			fmt.Printf("job %d queued: %s for trail %d on %s %s\n", id, name, trailID, dateStr, window)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().Int64Var(&trailID, "trail", 0, "trail id")
	cmd.Flags().StringVar(&dateStr, "date", "", "visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&windowStr, "window", "", "time window HH:MM-HH:MM")
	cmd.Flags().IntVar(&people, "people", 1, "number of people")
	cmd.Flags().StringVar(&modeStr, "mode", "NONE", "guide mode: NONE, AUTO or MANUAL")
	cmd.Flags().Int64Var(&guideID, "guide", 0, "guide id (MANUAL mode)")
	cmd.Flags().StringVar(&nationalID, "national-id", "", "visitor national id")
	cmd.Flags().StringVar(&firstName, "first-name", "", "visitor first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "visitor last name")
	cmd.Flags().StringVar(&email, "email", "", "visitor email")
	cmd.Flags().StringVar(&phone, "phone", "", "visitor phone")
	cmd.Flags().StringVar(&openAtStr, "open-at", "", "when the attempt window opens (RFC3339)")
	cmd.Flags().IntVar(&windowMin, "window-minutes", 60, "attempt window length in minutes")
	cmd.Flags().IntVar(&intervalSec, "interval", 30, "seconds between attempts")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("trail")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("window")
	_ = cmd.MarkFlagRequired("national-id")
	_ = cmd.MarkFlagRequired("open-at")
	return cmd
}

func newJobListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := jobRepoFromEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			js, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, j := range js {
				line := fmt.Sprintf("%d\t%s\ttrail=%d %s %s\tpeople=%d\t%s",
					j.ID, j.Name, j.TrailID, j.VisitDate.Format(domain.DateFormat), j.Window, j.People, j.Status)
				if j.ConfirmationCode != nil {
					line += "\tcode=" + *j.ConfirmationCode
				}
				if j.LastError != nil && j.Status != jobs.StatusBooked {
					line += "\terr=" + *j.LastError
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func jobRepoFromEnv(ctx context.Context) (*jobs.Repo, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return jobs.NewRepo(d), d.Close, nil
}
