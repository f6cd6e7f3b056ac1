package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/powerguard/internal/picker"
	"github.com/spf13/cobra"
)

var (
	pickStart   string
	pickHours   int
	pickMinutes int
	pickAmPm    bool
)

var pickerCmd = &cobra.Command{
	Use:   "picker",
	Short: "Time picker utilities",
}

var pickerConvertCmd = &cobra.Command{
	Use:   "convert <HH:MM | 오전|오후 H:MM>",
	Short: "Convert between 24-hour and 12-hour picker times",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPickerConvert,
}

var pickerScrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Simulate scrolling the picker wheels and print the committed time",
	Long: `Starts the picker on --start, scrolls the hour and minute wheels by the
given number of items one step at a time, and prints the confirmed time.`,
	Args: cobra.NoArgs,
	RunE: runPickerScroll,
}

func init() {
	pickerScrollCmd.Flags().StringVar(&pickStart, "start", "12:00", "Initial time as HH:MM")
	pickerScrollCmd.Flags().IntVar(&pickHours, "hours", 0, "Items to scroll the hour wheel (negative scrolls up)")
	pickerScrollCmd.Flags().IntVar(&pickMinutes, "minutes", 0, "Items to scroll the minute wheel (negative scrolls up)")
	pickerScrollCmd.Flags().BoolVar(&pickAmPm, "flip-ampm", false, "Flip the meridiem wheel")

	pickerCmd.AddCommand(pickerConvertCmd, pickerScrollCmd)
	rootCmd.AddCommand(pickerCmd)
}

func runPickerConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && !strings.Contains(args[0], " ") {
		t, err := picker.From24h(args[0])
		if err != nil {
			return err
		}
		fmt.Println(t)
		return nil
	}

	parts := args
	if len(parts) == 1 {
		parts = strings.Fields(parts[0])
	}
	if len(parts) != 2 {
		return fmt.Errorf("expected \"오전|오후 H:MM\"")
	}
	hm := strings.SplitN(parts[1], ":", 2)
	if len(hm) != 2 {
		return fmt.Errorf("expected H:MM, got %q", parts[1])
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return fmt.Errorf("invalid hour %q", hm[0])
	}

	s, err := picker.To24h(picker.Time{AmPm: parts[0], Hour: hour, Minute: hm[1]})
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

// scrollBy moves a column one item at a time, waiting out the commit throttle
// between steps
func scrollBy(c *picker.Column, items int, geo picker.Geometry, now time.Time) time.Time {
	step := geo.ItemHeight
	if items < 0 {
		step, items = -step, -items
	}
	for i := 0; i < items; i++ {
		now = now.Add(picker.CommitThrottle)
		c.Scroll(c.Top()+step, now)
	}
	return now
}

func runPickerScroll(cmd *cobra.Command, args []string) error {
	start, err := picker.From24h(pickStart)
	if err != nil {
		return err
	}

	geo := picker.DefaultGeometry
	now := time.Now()
	p, err := picker.New(start, geo, now)
	if err != nil {
		return err
	}
	now = now.Add(picker.SettleDelay)

	now = scrollBy(p.Hour, pickHours, geo, now)
	now = scrollBy(p.Minute, pickMinutes, geo, now)
	if pickAmPm {
		top := geo.ItemHeight
		if p.AmPm.Index() == 1 {
			top = 0
		}
		p.AmPm.Scroll(top, now)
	}
	p.Tick(now.Add(picker.SettleDelay))

	fmt.Printf("%s -> %s (%s)\n", start, p.Selected(), p.Confirm())
	return nil
}
