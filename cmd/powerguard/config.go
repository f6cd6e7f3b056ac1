package main

import (
	"fmt"
	"os"

	"github.com/jgoulah/powerguard/internal/config"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out := *cfg
	out.DBPath = cfg.GetDBPath()
	out.Timezone = cfg.GetLocation().String()
	out.ThresholdDelay = cfg.GetThresholdDelay().String()
	out.Server.Addr = cfg.GetAddr()
	out.Server.TickInterval = cfg.GetTickInterval().String()
	out.MQTT.TopicPrefix = cfg.GetTopicPrefix()

	if err := config.Save(path, &out); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", path)
	return nil
}
