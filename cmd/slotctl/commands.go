package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mentor-booking-api/internal/models"
	"github.com/noah-isme/mentor-booking-api/internal/service"
)

func newSlotsCmd(build clientFactory) *cobra.Command {
	var date string
	c := &cobra.Command{
		Use:   "slots <tutorial-id>",
		Short: "List candidate slots of a tutorial for one date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := build()
			if err != nil {
				return err
			}
			day, err := models.ParseDate(date, client.Location())
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}
			slots, err := client.GetAvailableSlots(cmd.Context(), args[0], day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%d min)\n", slots.Date, slots.DayOfWeek, slots.Duration)
			if len(slots.Slots) == 0 {
				fmt.Fprintln(out, "no availability")
				return nil
			}
			for _, s := range slots.Slots {
				state := "open"
				if !s.Available {
					state = s.Reason
				}
				fmt.Fprintf(out, "  %s  %s\n", s.Time, state)
			}
			return nil
		},
	}
	c.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("date")
	return c
}

func newOccupancyCmd(build clientFactory) *cobra.Command {
	var (
		month string
		local bool
		batch int
	)
	c := &cobra.Command{
		Use:   "occupancy <tutorial-id>",
		Short: "Show per-day occupancy tiers for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := build()
			if err != nil {
				return err
			}
			start, err := models.ParseMonth(month, client.Location())
			if err != nil {
				return fmt.Errorf("invalid --month (want YYYY-MM)")
			}

			var occ *models.MonthOccupancy
			if local {
				// Aggregate client-side from per-date slot queries.
				agg := service.NewOccupancyService(client, nil, nil, service.OccupancyConfig{BatchSize: batch, Location: client.Location()})
				occ, err = agg.ComputeMonthOccupancy(cmd.Context(), args[0], start)
			} else {
				occ, err = client.GetMonthOccupancy(cmd.Context(), args[0], start)
			}
			if err != nil {
				return err
			}
			printOccupancy(cmd.OutOrStdout(), occ)
			return nil
		},
	}
	c.Flags().StringVar(&month, "month", "", "month (YYYY-MM)")
	c.Flags().BoolVar(&local, "local", false, "aggregate locally instead of calling the occupancy endpoint")
	c.Flags().IntVar(&batch, "batch-size", 5, "concurrent date queries per batch with --local")
	_ = c.MarkFlagRequired("month")
	return c
}

func printOccupancy(out io.Writer, occ *models.MonthOccupancy) {
	fmt.Fprintf(out, "%s tutorial %s\n", occ.Month, occ.TutorialID)
	for _, date := range occ.QueriedDates {
		if occ.Failed(date) {
			fmt.Fprintf(out, "  %s  failed\n", date)
			continue
		}
		day, ok := occ.Days[date]
		if !ok {
			fmt.Fprintf(out, "  %s  %s\n", date, models.TierUnavailable)
			continue
		}
		fmt.Fprintf(out, "  %s  %-8s %d/%d\n", date, day.Tier, day.AvailableCount, day.TotalCount)
	}
}

func newTicketsCmd(build clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "tickets",
		Short: "List your tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := build()
			if err != nil {
				return err
			}
			tickets, err := client.GetMyTickets(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tickets) == 0 {
				fmt.Fprintln(out, "no tickets")
				return nil
			}
			for _, t := range tickets {
				state := "active"
				if t.Expired {
					state = "expired"
				}
				fmt.Fprintf(out, "%s  tutorial=%s  %d/%d left  %s\n", t.ID, t.TutorialID, t.RemainingCount, t.TotalCount, state)
			}
			return nil
		},
	}
}

func newBookCmd(build clientFactory) *cobra.Command {
	var (
		date    string
		at      string
		message string
	)
	c := &cobra.Command{
		Use:   "book <ticket-id>",
		Short: "Request a lesson on a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := models.ParseTimeOfDay(at); err != nil {
				return fmt.Errorf("invalid --time (want HH:MM)")
			}
			if len([]rune(message)) > models.MaxRequestMessageLength {
				return fmt.Errorf("--message exceeds %d characters", models.MaxRequestMessageLength)
			}
			client, err := build()
			if err != nil {
				return err
			}
			if _, err := models.ParseDate(date, client.Location()); err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}
			lesson, err := client.CreateLessonBooking(cmd.Context(), args[0], models.CreateLessonRequest{
				LessonDate:     date,
				LessonTime:     at,
				RequestMessage: strings.TrimSpace(message),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lesson %s %s at %s\n", lesson.ID, lesson.Status, lesson.ScheduledAt.In(client.Location()).Format("2006-01-02 15:04"))
			return nil
		},
	}
	c.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	c.Flags().StringVar(&at, "time", "", "start time (HH:MM)")
	c.Flags().StringVar(&message, "message", "", "note for the mentor")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}
