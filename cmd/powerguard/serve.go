package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jgoulah/powerguard/internal/api"
	"github.com/jgoulah/powerguard/internal/autoblock"
	"github.com/jgoulah/powerguard/internal/publisher"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reservation scheduler",
	Long: `Starts the HTTP API, evaluates due reservations and auto-block thresholds
on a fixed interval, and forwards state changes to MQTT when enabled.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	expired, err := a.reservations.ReconcileOnLoad()
	if err != nil {
		return fmt.Errorf("reconciling reservations: %w", err)
	}
	if expired > 0 {
		fmt.Printf("✓ Switched off %d expired reservation(s)\n", expired)
	}

	if a.cfg.MQTT.Enabled {
		pub, err := publisher.New(a.cfg)
		if err != nil {
			return fmt.Errorf("creating publisher: %w", err)
		}
		defer pub.Close()
		detach := pub.Attach(a.bus)
		defer detach()
		fmt.Printf("✓ Publishing events to %s under %s/\n", a.cfg.MQTT.Broker, a.cfg.GetTopicPrefix())
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.GetAddr()
	}
	srv := &http.Server{
		Addr: addr,
		Handler: (&api.Server{
			Controllers:  a.controllers,
			PowerData:    a.powerData,
			Reservations: a.reservations,
			Thresholds:   a.thresholds,
			Power:        a.power,
			Now:          a.now,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("Listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		runner := autoblock.NewRunner(a.reservations, a.thresholds, a.power, a.now)
		return runner.Run(ctx, a.cfg.GetTickInterval())
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("Shut down cleanly")
	return nil
}
