package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/powerguard/internal/usage"
	"github.com/jgoulah/powerguard/pkg/models"
	"github.com/spf13/cobra"
)

var (
	usageController int
	usageTab        string
)

const barWidth = 40

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show usage statistics and chart for a controller",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().IntVar(&usageController, "controller", 0, "Controller id (default: selected controller)")
	usageCmd.Flags().StringVar(&usageTab, "tab", string(models.TabDaily), "Period: hourly, daily, weekly, monthly or yearly")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	tab, ok := models.ParseTab(usageTab)
	if !ok {
		return fmt.Errorf("unknown tab %q", usageTab)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.controllerID(usageController)
	if err != nil {
		return err
	}
	b, err := a.powerData.Bundle(id)
	if err != nil {
		return fmt.Errorf("reading usage: %w", err)
	}
	view, _ := usage.View(b, tab)

	fmt.Printf("\nController %d %s usage:\n", id, tab)
	fmt.Println("----------------------------------------------------------")
	for _, p := range view.Chart {
		n := 0
		if view.YMax > 0 {
			n = int(p.Value / view.YMax * barWidth)
		}
		fmt.Printf("%6s  %-*s %s\n", p.Label, barWidth, strings.Repeat("█", n), humanize.CommafWithDigits(p.Value, 1))
	}
	fmt.Println("----------------------------------------------------------")
	fmt.Printf("Average: %s  Minimum: %s  Current: %s\n",
		humanize.CommafWithDigits(view.Stats.Average, 1),
		humanize.CommafWithDigits(view.Stats.Minimum, 1),
		humanize.CommafWithDigits(view.Stats.Current, 1))
	if b.AutoBlockThreshold > 0 {
		fmt.Printf("Auto-block threshold: %s\n", humanize.Comma(int64(b.AutoBlockThreshold)))
	}
	return nil
}
