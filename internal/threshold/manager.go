// Package threshold manages per-controller auto-block thresholds.
package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jgoulah/powerguard/internal/events"
	"github.com/jgoulah/powerguard/internal/usage"
	"github.com/jgoulah/powerguard/pkg/models"
)

var (
	// ErrNotNumeric is returned for a candidate that is not a non-negative integer
	ErrNotNumeric = errors.New("threshold must be a non-negative integer")
	// ErrExceedsAverage is returned for a candidate above the last 7 days' average usage
	ErrExceedsAverage = errors.New("threshold exceeds the 7-day average usage")
)

var digitsRE = regexp.MustCompile(`^\d+$`)

// Repository is the per-controller bundle store
type Repository interface {
	Bundle(controllerID int) (models.PowerBundle, error)
	Update(controllerID int, fn func(*models.PowerBundle) error) error
}

// Manager reads and validates thresholds
type Manager struct {
	repo  Repository
	bus   *events.Bus
	now   func() time.Time
	delay time.Duration
}

// NewManager builds a Manager. delay is the announced activation delay
// reported with each change; nothing waits on it.
func NewManager(repo Repository, bus *events.Bus, now func() time.Time, delay time.Duration) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{repo: repo, bus: bus, now: now, delay: delay}
}

// Get returns a controller's threshold
func (m *Manager) Get(controllerID int) (int, error) {
	b, err := m.repo.Bundle(controllerID)
	if err != nil {
		return 0, err
	}
	return b.AutoBlockThreshold, nil
}

// Average returns the last 7 days' average usage that bounds the threshold
func (m *Manager) Average(controllerID int) (float64, error) {
	b, err := m.repo.Bundle(controllerID)
	if err != nil {
		return 0, err
	}
	return usage.Last7DaysAverage(b), nil
}

// Result describes an accepted threshold change
type Result struct {
	ControllerID int       `json:"controllerId"`
	Threshold    int       `json:"threshold"`
	Average      float64   `json:"average"`
	EffectiveAt  time.Time `json:"effectiveAt"`
}

// ValidationError carries the limit a rejected candidate was checked against
type ValidationError struct {
	Candidate string
	Average   float64
	Err       error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrExceedsAverage) {
		return fmt.Sprintf("%s: %s > %.1f", e.Err, e.Candidate, e.Average)
	}
	return fmt.Sprintf("%s: %q", e.Err, e.Candidate)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Set validates candidate and stores it as the controller's threshold. Only
// that controller's record is rewritten.
func (m *Manager) Set(controllerID int, candidate string) (Result, error) {
	if !digitsRE.MatchString(candidate) {
		return Result{}, &ValidationError{Candidate: candidate, Err: ErrNotNumeric}
	}
	value, err := strconv.Atoi(candidate)
	if err != nil {
		// Digits only, so this is overflow
		return Result{}, &ValidationError{Candidate: candidate, Err: ErrNotNumeric}
	}

	var avg float64
	err = m.repo.Update(controllerID, func(b *models.PowerBundle) error {
		avg = usage.Last7DaysAverage(*b)
		if float64(value) > avg {
			return &ValidationError{Candidate: candidate, Average: avg, Err: ErrExceedsAverage}
		}
		b.AutoBlockThreshold = value
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ControllerID: controllerID,
		Threshold:    value,
		Average:      avg,
		EffectiveAt:  m.now().Add(m.delay),
	}
	m.bus.Publish(events.ThresholdChanged{ControllerID: controllerID, Threshold: value, EffectiveAt: res.EffectiveAt})
	return res, nil
}

// ShouldBlock reports whether a controller's current usage is below its
// positive threshold, which permits an automatic power-off
func (m *Manager) ShouldBlock(controllerID int) (bool, error) {
	b, err := m.repo.Bundle(controllerID)
	if err != nil {
		return false, err
	}
	if b.AutoBlockThreshold <= 0 {
		return false, nil
	}
	current := usage.ComputeStats(b.Daily.Chart).Current
	return current < float64(b.AutoBlockThreshold), nil
}
