package main

import (
	"fmt"
	"strconv"

	"github.com/jgoulah/powerguard/internal/state"
	"github.com/spf13/cobra"
)

var powerController int

var powerCmd = &cobra.Command{
	Use:       "power <on|off|status>",
	Short:     "Switch a controller or show its power state",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off", "status"},
	RunE:      runPower,
}

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "List controllers or choose the default one",
}

var controllerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List controllers with their power state",
	Args:  cobra.NoArgs,
	RunE:  runControllerList,
}

var controllerUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Remember a controller as the default for other commands",
	Args:  cobra.ExactArgs(1),
	RunE:  runControllerUse,
}

func init() {
	powerCmd.Flags().IntVar(&powerController, "controller", 0, "Controller id (default: selected controller)")
	rootCmd.AddCommand(powerCmd)

	controllerCmd.AddCommand(controllerListCmd, controllerUseCmd)
	rootCmd.AddCommand(controllerCmd)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func runPower(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.controllerID(powerController)
	if err != nil {
		return err
	}

	switch args[0] {
	case "status":
		on, _ := a.power.Power(id)
		fmt.Printf("Controller %d is %s\n", id, onOff(on))
		return nil
	case "on", "off":
		on := args[0] == "on"
		changed, err := a.power.SetPower(id, on, state.SourceManual)
		if err != nil {
			return fmt.Errorf("switching controller %d: %w", id, err)
		}
		if !changed {
			fmt.Printf("Controller %d already %s\n", id, onOff(on))
			return nil
		}
		fmt.Printf("✓ Controller %d switched %s\n", id, onOff(on))
		return nil
	default:
		return fmt.Errorf("unknown action %q (want on, off or status)", args[0])
	}
}

func runControllerList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.controllers.List()
	if err != nil {
		return fmt.Errorf("listing controllers: %w", err)
	}
	selected, _, err := a.prefs.SelectedController()
	if err != nil {
		return fmt.Errorf("reading selection: %w", err)
	}
	withUsage, err := a.powerData.ControllerIDs()
	if err != nil {
		return fmt.Errorf("reading usage: %w", err)
	}
	hasUsage := make(map[int]bool, len(withUsage))
	for _, id := range withUsage {
		hasUsage[id] = true
	}

	fmt.Printf("%2s %4s  %-16s %-16s %-5s %s\n", "", "ID", "Name", "Location", "Power", "Usage")
	for _, c := range list {
		mark := ""
		if c.ID == selected {
			mark = "*"
		}
		on, _ := a.power.Power(c.ID)
		usage := "yes"
		if !hasUsage[c.ID] {
			usage = "none"
		}
		fmt.Printf("%2s %4d  %-16s %-16s %-5s %s\n", mark, c.ID, c.Name, c.Location, onOff(on), usage)
	}
	return nil
}

func runControllerUse(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid controller id %q", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.controllers.Get(id)
	if err != nil {
		return err
	}
	if err := a.prefs.SelectController(id); err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}
	fmt.Printf("✓ Using controller %d (%s)\n", c.ID, c.Name)
	return nil
}
