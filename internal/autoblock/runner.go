// Package autoblock powers controllers off when a reservation falls due or
// usage drops below the auto-block threshold.
package autoblock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jgoulah/powerguard/internal/reservation"
	"github.com/jgoulah/powerguard/internal/state"
	"github.com/jgoulah/powerguard/internal/storage"
	"github.com/jgoulah/powerguard/internal/threshold"
)

// Action records one power-off performed by Check
type Action struct {
	ControllerID  int
	Source        string
	ReservationID int // zero for threshold blocks
}

// maxCatchUp bounds how many missed minutes one Check replays
const maxCatchUp = 15

// Runner evaluates reservations and thresholds on a fixed interval
type Runner struct {
	reservations *reservation.Scheduler
	thresholds   *threshold.Manager
	power        *state.Container
	now          func() time.Time

	lastMinute time.Time
}

func NewRunner(s *reservation.Scheduler, m *threshold.Manager, c *state.Container, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{reservations: s, thresholds: m, power: c, now: now}
}

// pendingMinutes returns the wall-clock minutes in (lastMinute, now] that
// have not been evaluated yet, oldest first
func (r *Runner) pendingMinutes(now time.Time) []time.Time {
	cur := now.Truncate(time.Minute)
	if r.lastMinute.IsZero() {
		return []time.Time{cur}
	}
	if !cur.After(r.lastMinute) {
		return nil
	}

	start := r.lastMinute.Add(time.Minute)
	if earliest := cur.Add(-(maxCatchUp - 1) * time.Minute); start.Before(earliest) {
		log.Printf("Warning: skipping reservation checks from %s to %s", start.Format("15:04"), earliest.Add(-time.Minute).Format("15:04"))
		start = earliest
	}

	var out []time.Time
	for m := start; !m.After(cur); m = m.Add(time.Minute) {
		out = append(out, m)
	}
	return out
}

// Check runs one evaluation. Every wall-clock minute since the previous
// call is evaluated for due reservations exactly once; thresholds are
// checked on every call.
func (r *Runner) Check() ([]Action, error) {
	now := r.now()
	var actions []Action

	for _, minute := range r.pendingMinutes(now) {
		due, err := r.reservations.Due(minute)
		if err != nil {
			return actions, fmt.Errorf("listing due reservations: %w", err)
		}
		r.lastMinute = minute

		for _, res := range due {
			changed, err := r.power.SetPower(res.ControllerID, false, state.SourceReservation)
			if errors.Is(err, storage.ErrControllerNotFound) {
				log.Printf("Warning: reservation %d targets unknown controller %d", res.ID, res.ControllerID)
				continue
			}
			if err != nil {
				return actions, err
			}
			if changed {
				actions = append(actions, Action{ControllerID: res.ControllerID, Source: state.SourceReservation, ReservationID: res.ID})
			}
		}
	}

	snapshot := r.power.Snapshot()
	ids := make([]int, 0, len(snapshot))
	for id, on := range snapshot {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		block, err := r.thresholds.ShouldBlock(id)
		if errors.Is(err, storage.ErrControllerNotFound) {
			continue
		}
		if err != nil {
			return actions, err
		}
		if !block {
			continue
		}
		changed, err := r.power.SetPower(id, false, state.SourceAutoBlock)
		if err != nil {
			return actions, err
		}
		if changed {
			actions = append(actions, Action{ControllerID: id, Source: state.SourceAutoBlock})
		}
	}

	return actions, nil
}

// Run calls Check every interval until ctx is cancelled
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if actions, err := r.Check(); err != nil {
			log.Printf("Warning: auto-block check failed: %v", err)
		} else {
			for _, a := range actions {
				log.Printf("Powered off controller %d (%s)", a.ControllerID, a.Source)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
