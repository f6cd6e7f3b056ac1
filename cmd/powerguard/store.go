package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect or reset stored documents",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys and when they were last written",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storeResetCmd = &cobra.Command{
	Use:   "reset <key>...",
	Short: "Delete stored keys so they are reseeded on next use",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStoreReset,
}

func init() {
	storeCmd.AddCommand(storeListCmd, storeResetCmd)
	rootCmd.AddCommand(storeCmd)
}

func runStoreList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	keys, err := a.db.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("Store is empty")
		return nil
	}

	for _, k := range keys {
		at, ok, err := a.db.UpdatedAt(k)
		if err != nil {
			return err
		}
		when := "unknown"
		if ok {
			when = humanize.Time(at)
		}
		fmt.Printf("%-26s  %s\n", k, when)
	}
	return nil
}

func runStoreReset(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, k := range args {
		if err := a.db.Delete(k); err != nil {
			return err
		}
		fmt.Printf("✓ Reset %s\n", k)
	}
	return nil
}
