package storage

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/jgoulah/powerguard/internal/database"
	"github.com/jgoulah/powerguard/pkg/models"
)

// ControllerRepo persists the controller list
type ControllerRepo struct {
	doc *Document[[]models.Controller]
}

func NewControllerRepo(kv KV) *ControllerRepo {
	return &ControllerRepo{doc: NewDocument(kv, database.KeyControllers, DefaultControllers, nil)}
}

// List returns every controller
func (r *ControllerRepo) List() ([]models.Controller, error) {
	list, _, err := r.doc.Load()
	return list, err
}

// Get returns a controller by id
func (r *ControllerRepo) Get(id int) (models.Controller, error) {
	list, err := r.List()
	if err != nil {
		return models.Controller{}, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Controller{}, fmt.Errorf("controller %d: %w", id, ErrControllerNotFound)
}

// DefaultControllers is the sample fleet written on first use
func DefaultControllers() []models.Controller {
	return []models.Controller{
		{ID: 1, Name: "거실 컨트롤러", Location: "101동 1203호"},
		{ID: 2, Name: "주방 컨트롤러", Location: "101동 1203호"},
		{ID: 3, Name: "사무실 컨트롤러", Location: "본관 3층"},
	}
}

// PowerStateRepo persists the on/off flag of every controller
type PowerStateRepo struct {
	doc *Document[map[string]bool]

	mu sync.Mutex
}

func NewPowerStateRepo(kv KV) *PowerStateRepo {
	seed := func() map[string]bool {
		m := make(map[string]bool)
		for _, c := range DefaultControllers() {
			m[strconv.Itoa(c.ID)] = true
		}
		return m
	}
	return &PowerStateRepo{doc: NewDocument(kv, database.KeyPowerState, seed, nil)}
}

// All returns every stored power flag keyed by controller id
func (r *PowerStateRepo) All() (map[int]bool, error) {
	m, _, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(m))
	for k, on := range m {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = on
	}
	return out, nil
}

// Set stores one controller's power flag
func (r *PowerStateRepo) Set(id int, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, _, err := r.doc.Load()
	if err != nil {
		return err
	}
	if m == nil {
		m = make(map[string]bool)
	}
	m[strconv.Itoa(id)] = on
	return r.doc.Save(m)
}

// Preferences holds the plain-string navigation keys
type Preferences struct {
	kv KV
}

func NewPreferences(kv KV) *Preferences {
	return &Preferences{kv: kv}
}

// SelectedController returns the selected controller id, falling back to the
// last used one. The bool is false when neither holds a valid id.
func (p *Preferences) SelectedController() (int, bool, error) {
	for _, key := range []string{database.KeySelectedControllerID, database.KeyLastControllerID} {
		v, ok, err := p.kv.Get(key)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// SelectController records id as both the selected and last used controller
func (p *Preferences) SelectController(id int) error {
	v := strconv.Itoa(id)
	if err := p.kv.Set(database.KeySelectedControllerID, v); err != nil {
		return err
	}
	return p.kv.Set(database.KeyLastControllerID, v)
}
