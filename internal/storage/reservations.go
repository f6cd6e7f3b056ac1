package storage

import (
	"fmt"

	"github.com/jgoulah/powerguard/internal/database"
	"github.com/jgoulah/powerguard/pkg/models"
)

// ReservationRepo persists the reservation list under the "reservations" key
type ReservationRepo struct {
	doc *Document[[]models.Reservation]
}

func NewReservationRepo(kv KV) *ReservationRepo {
	return &ReservationRepo{
		doc: NewDocument(kv, database.KeyReservations, DefaultReservations, validateReservations),
	}
}

// Load returns every stored reservation
func (r *ReservationRepo) Load() ([]models.Reservation, LoadStatus, error) {
	list, status, err := r.doc.Load()
	if list == nil {
		list = []models.Reservation{}
	}
	return list, status, err
}

// Save replaces the stored list
func (r *ReservationRepo) Save(list []models.Reservation) error {
	if list == nil {
		list = []models.Reservation{}
	}
	return r.doc.Save(list)
}

func validateReservations(list []models.Reservation) error {
	for i, res := range list {
		if res.ID <= 0 {
			return fmt.Errorf("reservation %d: invalid id %d", i, res.ID)
		}
		if res.ControllerID <= 0 {
			return fmt.Errorf("reservation %d: missing controller", res.ID)
		}
	}
	return nil
}

// DefaultReservations is the sample dataset written on first use
func DefaultReservations() []models.Reservation {
	return []models.Reservation{
		{ID: 1, ControllerID: 1, Time: "09:20", DateLabel: "매주 월, 수, 금", IsOn: true},
		{ID: 2, ControllerID: 1, Time: "18:00", DateLabel: "2025년 12월 24일 (수)", IsOn: true},
		{ID: 3, ControllerID: 2, Time: "07:30", DateLabel: "매주 토, 일", IsOn: false},
		{ID: 4, ControllerID: 3, Time: "22:00", DateLabel: "매주 일, 월, 화, 수, 목, 금, 토", IsOn: true},
	}
}
