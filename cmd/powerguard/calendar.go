package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jgoulah/powerguard/internal/calendar"
	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [year] [month]",
	Short: "Print a month grid; past days are marked with a dot",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runCalendar,
}

func init() {
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	now := time.Now().In(cfg.GetLocation())

	m := calendar.MonthOf(now)
	if len(args) > 0 {
		if m.Year, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
	}
	if len(args) > 1 {
		if m.Month, err = strconv.Atoi(args[1]); err != nil || m.Month < 1 || m.Month > 12 {
			return fmt.Errorf("invalid month %q", args[1])
		}
	}

	fmt.Printf("\n     %d년 %d월\n", m.Year, m.Month)
	for w := 0; w < 7; w++ {
		fmt.Printf(" %s ", calendar.WeekdayName(time.Weekday(w)))
	}
	fmt.Println()
	for _, row := range m.Days(now) {
		blank := true
		for _, d := range row {
			if d.Day != 0 {
				blank = false
			}
		}
		if blank {
			continue
		}
		for _, d := range row {
			switch {
			case d.Day == 0:
				fmt.Print("    ")
			case d.Past:
				fmt.Printf("%3d.", d.Day)
			default:
				fmt.Printf("%3d ", d.Day)
			}
		}
		fmt.Println()
	}
	return nil
}
