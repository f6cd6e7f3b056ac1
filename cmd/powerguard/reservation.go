package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/powerguard/internal/calendar"
	"github.com/jgoulah/powerguard/internal/picker"
	"github.com/jgoulah/powerguard/pkg/models"
	"github.com/spf13/cobra"
)

var (
	resController int
	resTime       string
	resAmPm       string
	resHour       int
	resMinute     string
	resDate       string
	resWeekdays   string
	resLabel      string
)

var reservationCmd = &cobra.Command{
	Use:     "reservation",
	Aliases: []string{"res"},
	Short:   "Manage scheduled power-off reservations",
}

var reservationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reservations for a controller",
	Args:  cobra.NoArgs,
	RunE:  runReservationList,
}

var reservationAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a reservation",
	Long: `Creates a power-off reservation. The time is given either as --time HH:MM
or as --ampm/--hour/--minute. The date is either a single --date YYYY-MM-DD
(today or later) or a set of --weekdays such as 월,목.`,
	Args: cobra.NoArgs,
	RunE: runReservationAdd,
}

var reservationEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a reservation's time and date",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationEdit,
}

var reservationToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Switch a reservation on or off",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationToggle,
}

var reservationDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more reservations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReservationDelete,
}

func init() {
	reservationListCmd.Flags().IntVar(&resController, "controller", 0, "Controller id (default: selected controller)")
	reservationAddCmd.Flags().IntVar(&resController, "controller", 0, "Controller id (default: selected controller)")

	for _, c := range []*cobra.Command{reservationAddCmd, reservationEditCmd} {
		c.Flags().StringVar(&resTime, "time", "", "Time as HH:MM (24-hour)")
		c.Flags().StringVar(&resAmPm, "ampm", picker.AM, "Meridiem when using --hour (오전 or 오후)")
		c.Flags().IntVar(&resHour, "hour", 0, "Hour 1-12")
		c.Flags().StringVar(&resMinute, "minute", "00", "Minute 00-59")
		c.Flags().StringVar(&resDate, "date", "", "Single date as YYYY-MM-DD")
		c.Flags().StringVar(&resWeekdays, "weekdays", "", "Comma separated weekdays (월,목 or mon,thu)")
		c.Flags().StringVar(&resLabel, "label", "", "Raw date label, e.g. \"매주 월, 목\"")
	}

	reservationCmd.AddCommand(reservationListCmd, reservationAddCmd, reservationEditCmd, reservationToggleCmd, reservationDeleteCmd)
	rootCmd.AddCommand(reservationCmd)
}

// resolveReservationFlags turns the time and date flags into "HH:MM" and a date label
func resolveReservationFlags(now time.Time) (string, string, error) {
	timeStr := resTime
	if timeStr == "" {
		if resHour == 0 {
			return "", "", fmt.Errorf("either --time or --hour is required")
		}
		t, err := picker.To24h(picker.Time{AmPm: resAmPm, Hour: resHour, Minute: resMinute})
		if err != nil {
			return "", "", err
		}
		timeStr = t
	}

	if resLabel != "" {
		return timeStr, resLabel, nil
	}

	sel := &calendar.Selection{}
	switch {
	case resDate != "":
		t, err := time.ParseInLocation("2006-01-02", resDate, now.Location())
		if err != nil {
			return "", "", fmt.Errorf("parsing --date: %w", err)
		}
		if err := calendar.NewDatePicker(calendar.DateOf(t)).ConfirmInto(sel, calendar.DateOf(now)); err != nil {
			return "", "", err
		}
	case resWeekdays != "":
		for _, name := range strings.Split(resWeekdays, ",") {
			w, ok := calendar.ParseWeekday(name)
			if !ok {
				return "", "", fmt.Errorf("unknown weekday %q", name)
			}
			sel.ToggleWeekday(w)
		}
	default:
		return "", "", fmt.Errorf("one of --date, --weekdays or --label is required")
	}

	label, err := sel.Label()
	if err != nil {
		return "", "", err
	}
	return timeStr, label, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid reservation id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printReservation(r models.Reservation) {
	status := "on"
	if !r.IsOn {
		status = "off"
	}
	display := r.Time
	if t, err := picker.From24h(r.Time); err == nil {
		display = t.String()
	}
	fmt.Printf("%4d  %-5s  %-10s  %-3s  %s\n", r.ID, r.Time, display, status, r.DateLabel)
}

func runReservationList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.controllerID(resController)
	if err != nil {
		return err
	}
	list, err := a.reservations.List(id)
	if err != nil {
		return fmt.Errorf("listing reservations: %w", err)
	}

	if len(list) == 0 {
		fmt.Printf("No reservations for controller %d\n", id)
		return nil
	}

	fmt.Printf("\nReservations for controller %d:\n", id)
	fmt.Println("----------------------------------------------------")
	fmt.Printf("%4s  %-5s  %-10s  %-3s  %s\n", "ID", "Time", "", "On", "Date")
	fmt.Println("----------------------------------------------------")
	for _, r := range list {
		printReservation(r)
	}
	fmt.Println("----------------------------------------------------")
	fmt.Printf("%d reservation(s)\n", len(list))
	return nil
}

func runReservationAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.controllerID(resController)
	if err != nil {
		return err
	}
	timeStr, label, err := resolveReservationFlags(a.now())
	if err != nil {
		return err
	}

	r, err := a.reservations.Create(id, timeStr, label)
	if err != nil {
		return fmt.Errorf("creating reservation: %w", err)
	}
	fmt.Printf("✓ Created reservation %d for controller %d\n", r.ID, id)
	printReservation(r)
	return nil
}

func runReservationEdit(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	timeStr, label, err := resolveReservationFlags(a.now())
	if err != nil {
		return err
	}
	r, err := a.reservations.Update(ids[0], timeStr, label)
	if err != nil {
		return fmt.Errorf("updating reservation: %w", err)
	}
	fmt.Printf("✓ Updated reservation %d\n", r.ID)
	printReservation(r)
	return nil
}

func runReservationToggle(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.reservations.Toggle(ids[0])
	if err != nil {
		return fmt.Errorf("toggling reservation: %w", err)
	}
	printReservation(r)
	return nil
}

func runReservationDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.reservations.Delete(ids...)
	if err != nil {
		return fmt.Errorf("deleting reservations: %w", err)
	}
	if n < len(ids) {
		fmt.Printf("⚠ %d of %d id(s) did not exist\n", len(ids)-n, len(ids))
	}
	fmt.Printf("✓ Deleted %d reservation(s)\n", n)
	return nil
}
