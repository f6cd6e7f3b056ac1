// Package state owns the process-wide controller power flags.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/jgoulah/powerguard/internal/events"
	"github.com/jgoulah/powerguard/internal/storage"
)

// Power sources reported on PowerChanged events
const (
	SourceManual      = "manual"
	SourceReservation = "reservation"
	SourceAutoBlock   = "auto-block"
)

// Container caches power flags seeded from the store and writes through on change
type Container struct {
	repo *storage.PowerStateRepo
	bus  *events.Bus
	now  func() time.Time

	mu    sync.RWMutex
	power map[int]bool
}

func NewContainer(repo *storage.PowerStateRepo, bus *events.Bus, now func() time.Time) *Container {
	if now == nil {
		now = time.Now
	}
	return &Container{repo: repo, bus: bus, now: now}
}

// Init loads every power flag from the store
func (c *Container) Init() error {
	all, err := c.repo.All()
	if err != nil {
		return fmt.Errorf("loading power state: %w", err)
	}

	c.mu.Lock()
	c.power = all
	c.mu.Unlock()
	return nil
}

// Power returns a controller's flag. The bool is false for unknown controllers.
func (c *Container) Power(id int) (on bool, known bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	on, known = c.power[id]
	return on, known
}

// Snapshot copies every known flag
func (c *Container) Snapshot() map[int]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]bool, len(c.power))
	for k, v := range c.power {
		out[k] = v
	}
	return out
}

// SetPower stores a flag and publishes PowerChanged. Setting the current
// value again is a no-op and reports changed=false.
func (c *Container) SetPower(id int, on bool, source string) (changed bool, err error) {
	c.mu.Lock()
	if c.power == nil {
		c.mu.Unlock()
		if err := c.Init(); err != nil {
			return false, err
		}
		c.mu.Lock()
	}
	prev, known := c.power[id]
	if !known {
		c.mu.Unlock()
		return false, fmt.Errorf("controller %d: %w", id, storage.ErrControllerNotFound)
	}
	if prev == on {
		c.mu.Unlock()
		return false, nil
	}
	if err := c.repo.Set(id, on); err != nil {
		c.mu.Unlock()
		return false, fmt.Errorf("storing power state: %w", err)
	}
	c.power[id] = on
	c.mu.Unlock()

	c.bus.Publish(events.PowerChanged{ControllerID: id, On: on, Source: source, At: c.now()})
	return true, nil
}
