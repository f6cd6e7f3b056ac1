package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jgoulah/powerguard/internal/database"
	"github.com/jgoulah/powerguard/internal/usage"
	"github.com/jgoulah/powerguard/pkg/models"
)

// ErrControllerNotFound is returned when a controller id has no stored record
var ErrControllerNotFound = errors.New("controller not found")

// PowerDataRepo persists the per-controller usage/threshold map under the
// "powerDataByController" key. Entries are kept as raw JSON so that updating
// one controller leaves every other entry's bytes untouched.
type PowerDataRepo struct {
	doc *Document[map[string]json.RawMessage]

	mu sync.Mutex // held across Update's load and save
}

// NewPowerDataRepo seeds bundles for DefaultControllers using now for chart labels
func NewPowerDataRepo(kv KV, now func() time.Time) *PowerDataRepo {
	seed := func() map[string]json.RawMessage {
		return seedPowerData(now())
	}
	return &PowerDataRepo{
		doc: NewDocument(kv, database.KeyPowerData, seed, validatePowerData),
	}
}

// Bundle returns one controller's record
func (r *PowerDataRepo) Bundle(controllerID int) (models.PowerBundle, error) {
	raw, _, err := r.doc.Load()
	if err != nil {
		return models.PowerBundle{}, err
	}

	entry, ok := raw[strconv.Itoa(controllerID)]
	if !ok {
		return models.PowerBundle{}, fmt.Errorf("controller %d: %w", controllerID, ErrControllerNotFound)
	}

	var b models.PowerBundle
	if err := json.Unmarshal(entry, &b); err != nil {
		return models.PowerBundle{}, fmt.Errorf("decoding controller %d: %w", controllerID, err)
	}
	return b, nil
}

// ControllerIDs lists the controllers that have a stored bundle, ascending
func (r *PowerDataRepo) ControllerIDs() ([]int, error) {
	raw, _, err := r.doc.Load()
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(raw))
	for k := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// Update applies fn to one controller's bundle and writes it back
func (r *PowerDataRepo) Update(controllerID int, fn func(*models.PowerBundle) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, _, err := r.doc.Load()
	if err != nil {
		return err
	}

	key := strconv.Itoa(controllerID)
	entry, ok := raw[key]
	if !ok {
		return fmt.Errorf("controller %d: %w", controllerID, ErrControllerNotFound)
	}

	var b models.PowerBundle
	if err := json.Unmarshal(entry, &b); err != nil {
		return fmt.Errorf("decoding controller %d: %w", controllerID, err)
	}
	if err := fn(&b); err != nil {
		return err
	}

	encoded, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding controller %d: %w", controllerID, err)
	}
	raw[key] = encoded

	return r.doc.Save(raw)
}

// Raw returns the stored entry bytes for a controller
func (r *PowerDataRepo) Raw(controllerID int) (json.RawMessage, bool, error) {
	raw, _, err := r.doc.Load()
	if err != nil {
		return nil, false, err
	}
	entry, ok := raw[strconv.Itoa(controllerID)]
	return entry, ok, nil
}

func validatePowerData(raw map[string]json.RawMessage) error {
	for k, entry := range raw {
		if _, err := strconv.Atoi(k); err != nil {
			return fmt.Errorf("invalid controller key %q", k)
		}
		var b models.PowerBundle
		if err := json.Unmarshal(entry, &b); err != nil {
			return fmt.Errorf("controller %s: %w", k, err)
		}
	}
	return nil
}

func seedPowerData(now time.Time) map[string]json.RawMessage {
	raw := make(map[string]json.RawMessage)
	for _, c := range DefaultControllers() {
		data, err := json.Marshal(usage.SeedBundle(c.ID, now))
		if err != nil {
			// PowerBundle holds only numbers and strings
			panic(err)
		}
		raw[strconv.Itoa(c.ID)] = data
	}
	return raw
}
