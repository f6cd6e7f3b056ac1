// Package storage provides typed repositories over the key-value store.
// Every value crosses the boundary as JSON; a value that is missing or fails
// to decode is replaced by its seed and written back.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
)

// KV is the key-value contract the repositories persist through
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// LoadStatus describes what a Load found in the store
type LoadStatus int

const (
	// Loaded means the stored value decoded cleanly
	Loaded LoadStatus = iota
	// Absent means nothing was stored and the seed was written
	Absent
	// Corrupt means the stored value failed to decode and the seed was written
	Corrupt
)

func (s LoadStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Absent:
		return "absent"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// Document is a single JSON value stored under one key
type Document[T any] struct {
	kv       KV
	key      string
	seed     func() T
	validate func(T) error
}

// NewDocument binds a key to a seed. validate may be nil.
func NewDocument[T any](kv KV, key string, seed func() T, validate func(T) error) *Document[T] {
	return &Document[T]{kv: kv, key: key, seed: seed, validate: validate}
}

// Load decodes the stored value. Absent or corrupt values are reseeded.
// Only store failures are returned as errors.
func (d *Document[T]) Load() (T, LoadStatus, error) {
	var zero T

	raw, ok, err := d.kv.Get(d.key)
	if err != nil {
		return zero, Loaded, err
	}
	if !ok {
		v, err := d.reseed()
		return v, Absent, err
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Printf("Warning: %s holds invalid JSON, reseeding: %v", d.key, err)
		v, err := d.reseed()
		return v, Corrupt, err
	}
	if d.validate != nil {
		if err := d.validate(v); err != nil {
			log.Printf("Warning: %s failed validation, reseeding: %v", d.key, err)
			v, err := d.reseed()
			return v, Corrupt, err
		}
	}
	return v, Loaded, nil
}

// Save encodes v and writes it under the document key
func (d *Document[T]) Save(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.key, err)
	}
	return d.kv.Set(d.key, string(data))
}

func (d *Document[T]) reseed() (T, error) {
	v := d.seed()
	if err := d.Save(v); err != nil {
		return v, fmt.Errorf("reseeding %s: %w", d.key, err)
	}
	return v, nil
}
