// Package events is the in-process publish/subscribe bus for controller state changes.
package events

import (
	"sync"
	"time"
)

// Kind names an event type; it doubles as the MQTT topic suffix
type Kind string

const (
	KindPower        Kind = "power"
	KindThreshold    Kind = "threshold"
	KindReservations Kind = "reservations"
)

// Event is implemented by every payload published on the bus
type Event interface {
	Kind() Kind
	Controller() int
}

// PowerChanged is published after a controller's power flag is stored
type PowerChanged struct {
	ControllerID int       `json:"controllerId"`
	On           bool      `json:"on"`
	Source       string    `json:"source"` // "manual", "reservation", "auto-block"
	At           time.Time `json:"at"`
}

func (e PowerChanged) Kind() Kind      { return KindPower }
func (e PowerChanged) Controller() int { return e.ControllerID }

// ThresholdChanged is published after an auto-block threshold is stored
type ThresholdChanged struct {
	ControllerID int       `json:"controllerId"`
	Threshold    int       `json:"threshold"`
	EffectiveAt  time.Time `json:"effectiveAt"`
}

func (e ThresholdChanged) Kind() Kind      { return KindThreshold }
func (e ThresholdChanged) Controller() int { return e.ControllerID }

// ReservationsChanged is published after the reservation list of a controller changes
type ReservationsChanged struct {
	ControllerID int    `json:"controllerId"`
	Op           string `json:"op"` // "create", "update", "toggle", "delete", "expire"
	IDs          []int  `json:"ids"`
}

func (e ReservationsChanged) Kind() Kind      { return KindReservations }
func (e ReservationsChanged) Controller() int { return e.ControllerID }

// Bus delivers events synchronously to every subscriber in subscription order
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers e to the current subscribers. A nil Bus drops events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
