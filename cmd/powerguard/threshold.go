package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var thresholdController int

var thresholdCmd = &cobra.Command{
	Use:   "threshold",
	Short: "Show or change the auto-block threshold",
}

var thresholdGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current threshold and the 7-day average",
	Args:  cobra.NoArgs,
	RunE:  runThresholdGet,
}

var thresholdSetCmd = &cobra.Command{
	Use:   "set <value>",
	Short: "Set the threshold (a non-negative integer no greater than the 7-day average)",
	Args:  cobra.ExactArgs(1),
	RunE:  runThresholdSet,
}

func init() {
	thresholdCmd.PersistentFlags().IntVar(&thresholdController, "controller", 0, "Controller id (default: selected controller)")
	thresholdCmd.AddCommand(thresholdGetCmd, thresholdSetCmd)
	rootCmd.AddCommand(thresholdCmd)
}

func runThresholdGet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.controllerID(thresholdController)
	if err != nil {
		return err
	}
	v, err := a.thresholds.Get(id)
	if err != nil {
		return fmt.Errorf("reading threshold: %w", err)
	}
	avg, err := a.thresholds.Average(id)
	if err != nil {
		return fmt.Errorf("reading usage: %w", err)
	}

	if v == 0 {
		fmt.Printf("Controller %d: auto-block disabled\n", id)
	} else {
		fmt.Printf("Controller %d: auto-block below %s\n", id, humanize.Comma(int64(v)))
	}
	fmt.Printf("7-day average: %s\n", humanize.CommafWithDigits(avg, 1))
	return nil
}

func runThresholdSet(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.controllerID(thresholdController)
	if err != nil {
		return err
	}
	res, err := a.thresholds.Set(id, args[0])
	if err != nil {
		return fmt.Errorf("setting threshold: %w", err)
	}

	fmt.Printf("✓ Threshold for controller %d set to %s\n", id, humanize.Comma(int64(res.Threshold)))
	fmt.Printf("  Takes effect %s (%s)\n", humanize.Time(res.EffectiveAt), res.EffectiveAt.Format("15:04"))
	return nil
}
