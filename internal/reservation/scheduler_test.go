package reservation

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jgoulah/powerguard/internal/calendar"
	"github.com/jgoulah/powerguard/internal/database"
	"github.com/jgoulah/powerguard/internal/events"
	"github.com/jgoulah/powerguard/internal/storage"
	"github.com/jgoulah/powerguard/pkg/models"
)

type memRepo struct {
	list  []models.Reservation
	saves int
}

func (m *memRepo) Load() ([]models.Reservation, storage.LoadStatus, error) {
	out := make([]models.Reservation, len(m.list))
	copy(out, m.list)
	return out, storage.Loaded, nil
}

func (m *memRepo) Save(list []models.Reservation) error {
	m.list = append([]models.Reservation(nil), list...)
	m.saves++
	return nil
}

var today = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

func TestCreateAssignsIDs(t *testing.T) {
	repo := &memRepo{}
	s := New(repo, nil, fixedClock)

	r, err := s.Create(1, "09:20", "매주 월, 목")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != 1 || !r.IsOn {
		t.Errorf("first reservation = %+v", r)
	}

	repo.list = append(repo.list, models.Reservation{ID: 7, ControllerID: 2, Time: "10:00", DateLabel: "매주 일", IsOn: false})
	r, err = s.Create(2, "10:00", "매주 일")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != 8 {
		t.Errorf("id = %d, want 8", r.ID)
	}
}

func TestCreateDuplicateRejected(t *testing.T) {
	repo := &memRepo{}
	bus := events.NewBus()
	var published int
	bus.Subscribe(func(events.Event) { published++ })
	s := New(repo, bus, fixedClock)

	if _, err := s.Create(1, "09:20", "2026년 10월 20일 (화)"); err != nil {
		t.Fatal(err)
	}
	_, err := s.Create(1, "09:20", "2026년 10월 20일 (화)")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second create err = %v", err)
	}
	if len(repo.list) != 1 || repo.saves != 1 || published != 1 {
		t.Errorf("duplicate changed state: %d records, %d saves, %d events", len(repo.list), repo.saves, published)
	}

	// Labels are compared in canonical form
	if _, err := s.Create(1, "07:00", "매주 목,월"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(1, "07:00", "매주 월, 목"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("canonical duplicate err = %v", err)
	}

	// Another controller, or an inactive twin, is not a duplicate
	if _, err := s.Create(2, "09:20", "2026년 10월 20일 (화)"); err != nil {
		t.Errorf("other controller rejected: %v", err)
	}
	if _, err := s.Toggle(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(1, "09:20", "2026년 10월 20일 (화)"); err != nil {
		t.Errorf("inactive twin blocked create: %v", err)
	}
}

func TestCreateValidates(t *testing.T) {
	s := New(&memRepo{}, nil, fixedClock)
	if _, err := s.Create(1, "25:00", "매주 월"); err == nil {
		t.Error("invalid time accepted")
	}
	if _, err := s.Create(1, "09:00", "someday"); !errors.Is(err, calendar.ErrInvalidLabel) {
		t.Errorf("invalid label err = %v", err)
	}
}

func TestUpdateToggleDelete(t *testing.T) {
	repo := &memRepo{list: []models.Reservation{
		{ID: 1, ControllerID: 1, Time: "09:00", DateLabel: "매주 월", IsOn: true},
		{ID: 2, ControllerID: 1, Time: "10:00", DateLabel: "매주 화", IsOn: true},
		{ID: 3, ControllerID: 2, Time: "11:00", DateLabel: "매주 수", IsOn: true},
	}}
	bus := events.NewBus()
	var got []events.ReservationsChanged
	bus.Subscribe(func(e events.Event) { got = append(got, e.(events.ReservationsChanged)) })
	s := New(repo, bus, fixedClock)

	// Update does not re-check duplicates
	r, err := s.Update(2, "09:00", "매주 월")
	if err != nil {
		t.Fatal(err)
	}
	if r.Time != "09:00" || r.DateLabel != "매주 월" || r.ControllerID != 1 {
		t.Errorf("updated = %+v", r)
	}

	r, err = s.Toggle(3)
	if err != nil || r.IsOn {
		t.Errorf("toggle = %+v, %v", r, err)
	}

	if _, err := s.Update(99, "09:00", "매주 월"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
	if _, err := s.Toggle(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle missing err = %v", err)
	}

	n, err := s.Delete(1, 3, 42)
	if err != nil || n != 2 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if len(repo.list) != 1 || repo.list[0].ID != 2 {
		t.Errorf("remaining = %+v", repo.list)
	}
	if n, _ := s.Delete(42); n != 0 {
		t.Errorf("Delete of missing id = %d", n)
	}

	ops := []string{}
	for _, e := range got {
		ops = append(ops, e.Op)
	}
	want := []string{"update", "toggle", "delete", "delete"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops = %v, want %v", ops, want)
			break
		}
	}
}

func TestListFiltersByController(t *testing.T) {
	repo := &memRepo{list: []models.Reservation{
		{ID: 5, ControllerID: 1, Time: "09:00", DateLabel: "2019년 01월 01일 (화)", IsOn: false},
		{ID: 2, ControllerID: 1, Time: "10:00", DateLabel: "매주 화", IsOn: true},
		{ID: 3, ControllerID: 2, Time: "11:00", DateLabel: "매주 수", IsOn: true},
	}}
	s := New(repo, nil, fixedClock)

	list, err := s.List(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 5 {
		t.Errorf("List(1) = %+v", list)
	}
	if list, _ := s.List(9); list == nil || len(list) != 0 {
		t.Errorf("List(9) = %#v", list)
	}
}

func TestReconcileOnLoad(t *testing.T) {
	repo := &memRepo{list: []models.Reservation{
		{ID: 1, ControllerID: 1, Time: "09:20", DateLabel: "2020년 01월 01일 (수)", IsOn: true},
		{ID: 2, ControllerID: 1, Time: "09:20", DateLabel: "2026년 10월 17일 (토)", IsOn: true},
		{ID: 3, ControllerID: 2, Time: "09:20", DateLabel: "2026년 10월 16일 (금)", IsOn: true},
		{ID: 4, ControllerID: 2, Time: "09:20", DateLabel: "매주 월", IsOn: true},
		{ID: 5, ControllerID: 3, Time: "09:20", DateLabel: "2021년 05월 05일 (수)", IsOn: false},
	}}
	s := New(repo, nil, fixedClock)

	n, err := s.ReconcileOnLoad()
	if err != nil || n != 2 {
		t.Fatalf("first reconcile = %d, %v", n, err)
	}
	want := map[int]bool{1: false, 2: true, 3: false, 4: true, 5: false}
	for _, r := range repo.list {
		if r.IsOn != want[r.ID] {
			t.Errorf("reservation %d isOn = %v", r.ID, r.IsOn)
		}
	}

	saves := repo.saves
	n, err = s.ReconcileOnLoad()
	if err != nil || n != 0 {
		t.Errorf("second reconcile = %d, %v", n, err)
	}
	if repo.saves != saves {
		t.Error("idempotent reconcile wrote to the store")
	}
}

func TestReconcileSeededStore(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	seed := `[{"id":1,"controllerId":1,"time":"09:20","dateLabel":"2020년 01월 01일 (수)","isOn":true}]`
	if err := db.Set(database.KeyReservations, seed); err != nil {
		t.Fatal(err)
	}

	s := New(storage.NewReservationRepo(db), nil, fixedClock)
	if n, err := s.ReconcileOnLoad(); err != nil || n != 1 {
		t.Fatalf("reconcile = %d, %v", n, err)
	}
	r, err := s.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if r.IsOn {
		t.Error("past reservation still on")
	}
}

func TestCorruptStoreFallsBackToSeed(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.Set(database.KeyReservations, "[{"); err != nil {
		t.Fatal(err)
	}

	s := New(storage.NewReservationRepo(db), nil, fixedClock)
	list, err := s.List(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 {
		t.Error("expected default sample reservations after corrupt load")
	}
}

func TestDue(t *testing.T) {
	// 2026-10-19 is a Monday
	now := time.Date(2026, 10, 19, 9, 20, 30, 0, time.UTC)
	repo := &memRepo{list: []models.Reservation{
		{ID: 1, ControllerID: 1, Time: "09:20", DateLabel: "매주 월, 목", IsOn: true},
		{ID: 2, ControllerID: 1, Time: "09:20", DateLabel: "매주 화", IsOn: true},
		{ID: 3, ControllerID: 2, Time: "09:20", DateLabel: "2026년 10월 19일 (월)", IsOn: true},
		{ID: 4, ControllerID: 2, Time: "09:21", DateLabel: "2026년 10월 19일 (월)", IsOn: true},
		{ID: 5, ControllerID: 3, Time: "09:20", DateLabel: "매주 월", IsOn: false},
	}}
	s := New(repo, nil, fixedClock)

	due, err := s.Due(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != 1 || due[1].ID != 3 {
		t.Errorf("Due = %+v", due)
	}
}

func TestConcurrentCreatesAreAllStored(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	repo := storage.NewReservationRepo(db)
	if err := repo.Save(nil); err != nil {
		t.Fatal(err)
	}
	s := New(repo, nil, fixedClock)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Create(1, fmt.Sprintf("10:%02d", i), "매주 월"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	list, err := s.List(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != n {
		t.Fatalf("stored %d reservations, want %d", len(list), n)
	}
	seen := make(map[int]bool)
	for _, r := range list {
		if seen[r.ID] {
			t.Errorf("duplicate id %d", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestListExpiresPastReservations(t *testing.T) {
	repo := &memRepo{list: []models.Reservation{
		{ID: 1, ControllerID: 1, Time: "09:20", DateLabel: "2026년 10월 16일 (금)", IsOn: true},
		{ID: 2, ControllerID: 1, Time: "09:20", DateLabel: "2026년 10월 17일 (토)", IsOn: true},
	}}
	bus := events.NewBus()
	var got []events.ReservationsChanged
	bus.Subscribe(func(e events.Event) { got = append(got, e.(events.ReservationsChanged)) })
	s := New(repo, bus, fixedClock)

	list, err := s.List(1)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].IsOn || !list[1].IsOn {
		t.Errorf("List = %+v", list)
	}
	if repo.list[0].IsOn {
		t.Error("expired reservation not written back")
	}
	if len(got) != 1 || got[0].Op != "expire" || got[0].IDs[0] != 1 {
		t.Errorf("events = %+v", got)
	}

	// Toggling a stale reservation sees it already expired
	r, err := s.Toggle(1)
	if err != nil || !r.IsOn {
		t.Errorf("Toggle = %+v, %v", r, err)
	}
}

func TestCreateDuplicateOfLegacyLabel(t *testing.T) {
	repo := &memRepo{list: []models.Reservation{
		{ID: 1, ControllerID: 1, Time: "09:20", DateLabel: "매주 Mon, Thu", IsOn: true},
	}}
	s := New(repo, nil, fixedClock)

	if _, err := s.Create(1, "09:20", "매주 Mon, Thu"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	if _, err := s.Create(1, "09:20", "매주 월, 목"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("canonical err = %v, want ErrDuplicate", err)
	}
}
