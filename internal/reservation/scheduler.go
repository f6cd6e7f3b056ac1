// Package reservation manages scheduled block reservations per controller.
package reservation

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jgoulah/powerguard/internal/calendar"
	"github.com/jgoulah/powerguard/internal/events"
	"github.com/jgoulah/powerguard/internal/picker"
	"github.com/jgoulah/powerguard/internal/storage"
	"github.com/jgoulah/powerguard/pkg/models"
)

var (
	// ErrDuplicate is returned when an active reservation already has the same controller, time and date label
	ErrDuplicate = errors.New("reservation already exists")
	// ErrNotFound is returned for an unknown reservation id
	ErrNotFound = errors.New("reservation not found")
)

// Repository is the persistence the scheduler reads and writes through
type Repository interface {
	Load() ([]models.Reservation, storage.LoadStatus, error)
	Save([]models.Reservation) error
}

// Scheduler implements reservation CRUD against a Repository. Every call is
// a read-modify-write of the whole list, serialized by mu. Each load also
// switches off one-shot reservations whose date has passed.
type Scheduler struct {
	repo Repository
	bus  *events.Bus
	now  func() time.Time

	mu sync.Mutex
}

func New(repo Repository, bus *events.Bus, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{repo: repo, bus: bus, now: now}
}

// load reads the list and expires past one-shot reservations. Callers hold mu.
func (s *Scheduler) load() ([]models.Reservation, int, error) {
	all, _, err := s.repo.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("loading reservations: %w", err)
	}

	now := s.now()
	expired := make(map[int][]int)
	count := 0
	for i, r := range all {
		if !r.IsOn || calendar.IsWeekly(r.DateLabel) {
			continue
		}
		d, ok := calendar.AbsoluteDate(r.DateLabel)
		if !ok || !calendar.IsPast(d, now) {
			continue
		}
		all[i].IsOn = false
		expired[r.ControllerID] = append(expired[r.ControllerID], r.ID)
		count++
	}
	if count == 0 {
		return all, 0, nil
	}

	if err := s.repo.Save(all); err != nil {
		return nil, 0, fmt.Errorf("saving reservations: %w", err)
	}
	s.publishGrouped("expire", expired)
	return all, count, nil
}

// List returns every reservation of a controller in id order
func (s *Scheduler) List(controllerID int) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, _, err := s.load()
	if err != nil {
		return nil, err
	}

	out := []models.Reservation{}
	for _, r := range all {
		if r.ControllerID == controllerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns one reservation by id
func (s *Scheduler) Get(id int) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, _, err := s.load()
	if err != nil {
		return models.Reservation{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
}

// Normalize validates a time and date label and returns their canonical forms
func Normalize(timeStr, dateLabel string) (string, string, error) {
	if _, err := picker.From24h(timeStr); err != nil {
		return "", "", err
	}
	sel, err := calendar.ParseLabel(dateLabel)
	if err != nil {
		return "", "", err
	}
	label, err := sel.Label()
	if err != nil {
		return "", "", err
	}
	return timeStr, label, nil
}

// canonicalLabel renders a stored label in the form Normalize produces.
// Unparseable labels are returned unchanged.
func canonicalLabel(label string) string {
	sel, err := calendar.ParseLabel(label)
	if err != nil {
		return label
	}
	out, err := sel.Label()
	if err != nil {
		return label
	}
	return out
}

// Create appends an active reservation. The id is one more than the largest
// stored id, or 1 for an empty list.
func (s *Scheduler) Create(controllerID int, timeStr, dateLabel string) (models.Reservation, error) {
	timeStr, dateLabel, err := Normalize(timeStr, dateLabel)
	if err != nil {
		return models.Reservation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, _, err := s.load()
	if err != nil {
		return models.Reservation{}, err
	}

	maxID := 0
	for _, r := range all {
		if r.IsOn && r.ControllerID == controllerID && r.Time == timeStr && canonicalLabel(r.DateLabel) == dateLabel {
			return models.Reservation{}, fmt.Errorf("%s %s: %w", dateLabel, timeStr, ErrDuplicate)
		}
		if r.ID > maxID {
			maxID = r.ID
		}
	}

	res := models.Reservation{
		ID:           maxID + 1,
		ControllerID: controllerID,
		Time:         timeStr,
		DateLabel:    dateLabel,
		IsOn:         true,
	}
	if err := s.repo.Save(append(all, res)); err != nil {
		return models.Reservation{}, fmt.Errorf("saving reservations: %w", err)
	}

	s.bus.Publish(events.ReservationsChanged{ControllerID: controllerID, Op: "create", IDs: []int{res.ID}})
	return res, nil
}

// Update rewrites the time and date label of a reservation. Duplicates are not re-checked.
func (s *Scheduler) Update(id int, timeStr, dateLabel string) (models.Reservation, error) {
	timeStr, dateLabel, err := Normalize(timeStr, dateLabel)
	if err != nil {
		return models.Reservation{}, err
	}

	return s.mutate(id, "update", func(r *models.Reservation) {
		r.Time = timeStr
		r.DateLabel = dateLabel
	})
}

// Toggle flips a reservation's isOn flag
func (s *Scheduler) Toggle(id int) (models.Reservation, error) {
	return s.mutate(id, "toggle", func(r *models.Reservation) {
		r.IsOn = !r.IsOn
	})
}

func (s *Scheduler) mutate(id int, op string, fn func(*models.Reservation)) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, _, err := s.load()
	if err != nil {
		return models.Reservation{}, err
	}

	for i := range all {
		if all[i].ID != id {
			continue
		}
		fn(&all[i])
		if err := s.repo.Save(all); err != nil {
			return models.Reservation{}, fmt.Errorf("saving reservations: %w", err)
		}
		s.bus.Publish(events.ReservationsChanged{ControllerID: all[i].ControllerID, Op: op, IDs: []int{id}})
		return all[i], nil
	}
	return models.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
}

// Delete removes every reservation whose id is listed and returns how many were removed
func (s *Scheduler) Delete(ids ...int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, _, err := s.load()
	if err != nil {
		return 0, err
	}

	kept := make([]models.Reservation, 0, len(all))
	removed := make(map[int][]int)
	for _, r := range all {
		if drop[r.ID] {
			removed[r.ControllerID] = append(removed[r.ControllerID], r.ID)
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == len(all) {
		return 0, nil
	}

	if err := s.repo.Save(kept); err != nil {
		return 0, fmt.Errorf("saving reservations: %w", err)
	}
	s.publishGrouped("delete", removed)
	return len(all) - len(kept), nil
}

// ReconcileOnLoad switches off active one-shot reservations whose date is
// before today. Weekly reservations never expire. It returns how many were
// switched off; a second run finds nothing to do. Every other method does
// the same as part of its load.
func (s *Scheduler) ReconcileOnLoad() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, n, err := s.load()
	return n, err
}

// Due returns the active reservations that fall on the minute of now
func (s *Scheduler) Due(now time.Time) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, _, err := s.load()
	if err != nil {
		return nil, err
	}

	hhmm := now.Format("15:04")
	today := calendar.DateOf(now)

	var due []models.Reservation
	for _, r := range all {
		if !r.IsOn || r.Time != hhmm {
			continue
		}
		sel, err := calendar.ParseLabel(r.DateLabel)
		if err != nil {
			continue
		}
		if sel.Matches(today) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (s *Scheduler) publishGrouped(op string, byController map[int][]int) {
	controllers := make([]int, 0, len(byController))
	for id := range byController {
		controllers = append(controllers, id)
	}
	sort.Ints(controllers)
	for _, id := range controllers {
		s.bus.Publish(events.ReservationsChanged{ControllerID: id, Op: op, IDs: byController[id]})
	}
}
