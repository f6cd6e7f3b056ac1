package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jgoulah/powerguard/internal/config"
	"github.com/jgoulah/powerguard/internal/database"
	"github.com/jgoulah/powerguard/internal/events"
	"github.com/jgoulah/powerguard/internal/reservation"
	"github.com/jgoulah/powerguard/internal/state"
	"github.com/jgoulah/powerguard/internal/storage"
	"github.com/jgoulah/powerguard/internal/threshold"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "powerguard",
	Short: "Manage smart power controllers",
	Long: `PowerGuard manages a fleet of smart power controllers: scheduled power-off
reservations, auto-block thresholds and usage statistics, persisted in a local
SQLite database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./powerguard.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the database connection
func openDB(cfg *config.Config) (*database.DB, error) {
	path := dbPath
	if path == "" {
		path = cfg.GetDBPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// app bundles everything a command needs
type app struct {
	cfg          *config.Config
	db           *database.DB
	bus          *events.Bus
	now          func() time.Time
	controllers  *storage.ControllerRepo
	prefs        *storage.Preferences
	powerData    *storage.PowerDataRepo
	reservations *reservation.Scheduler
	thresholds   *threshold.Manager
	power        *state.Container
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	loc := cfg.GetLocation()
	now := func() time.Time { return time.Now().In(loc) }
	bus := events.NewBus()
	data := storage.NewPowerDataRepo(db, now)

	a := &app{
		cfg:          cfg,
		db:           db,
		bus:          bus,
		now:          now,
		controllers:  storage.NewControllerRepo(db),
		prefs:        storage.NewPreferences(db),
		powerData:    data,
		reservations: reservation.New(storage.NewReservationRepo(db), bus, now),
		thresholds:   threshold.NewManager(data, bus, now, cfg.GetThresholdDelay()),
		power:        state.NewContainer(storage.NewPowerStateRepo(db), bus, now),
	}
	if err := a.power.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading power state: %w", err)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// controllerID resolves the --controller flag, falling back to the
// remembered selection
func (a *app) controllerID(flag int) (int, error) {
	if flag > 0 {
		if _, err := a.controllers.Get(flag); err != nil {
			return 0, err
		}
		return flag, nil
	}
	id, ok, err := a.prefs.SelectedController()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("no controller selected (use --controller or 'powerguard controller use <id>')")
	}
	return id, nil
}
