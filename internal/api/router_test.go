package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jgoulah/powerguard/internal/database"
	"github.com/jgoulah/powerguard/internal/events"
	"github.com/jgoulah/powerguard/internal/reservation"
	"github.com/jgoulah/powerguard/internal/state"
	"github.com/jgoulah/powerguard/internal/storage"
	"github.com/jgoulah/powerguard/internal/threshold"
	"github.com/jgoulah/powerguard/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return now }
	bus := events.NewBus()
	resRepo := storage.NewReservationRepo(db)
	if err := resRepo.Save(nil); err != nil {
		t.Fatal(err)
	}
	data := storage.NewPowerDataRepo(db, clock)
	power := state.NewContainer(storage.NewPowerStateRepo(db), bus, clock)
	if err := power.Init(); err != nil {
		t.Fatal(err)
	}

	s := &Server{
		Controllers:  storage.NewControllerRepo(db),
		PowerData:    data,
		Reservations: reservation.New(resRepo, bus, clock),
		Thresholds:   threshold.NewManager(data, bus, clock, 10*time.Minute),
		Power:        power,
		Now:          clock,
	}
	return s.Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestReservationLifecycle(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/v1/controllers/1/reservations", map[string]any{
		"ampm": "오후", "hour": 3, "minute": "05", "weekdays": []string{"목", "월"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", w.Code, w.Body.String())
	}
	created := decode[models.Reservation](t, w)
	if created.ID != 1 || created.Time != "15:05" || created.DateLabel != "매주 월, 목" || !created.IsOn {
		t.Errorf("created = %+v", created)
	}

	w = do(t, h, http.MethodPost, "/api/v1/controllers/1/reservations", map[string]any{
		"time": "15:05", "dateLabel": "매주 월, 목",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/controllers/1/reservations", map[string]any{
		"time": "08:00", "date": map[string]int{"year": 2026, "month": 10, "day": 16},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("past date status %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/controllers/1/reservations", map[string]any{
		"time": "08:00", "date": map[string]int{"year": 2026, "month": 10, "day": 17},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("today status %d: %s", w.Code, w.Body.String())
	}
	if got := decode[models.Reservation](t, w); got.DateLabel != "2026년 10월 17일 (토)" {
		t.Errorf("label = %q", got.DateLabel)
	}

	w = do(t, h, http.MethodPut, "/api/v1/reservations/1", map[string]any{"time": "16:00", "dateLabel": "매주 화"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/reservations/1/toggle", nil)
	if w.Code != http.StatusOK || decode[models.Reservation](t, w).IsOn {
		t.Errorf("toggle status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/v1/controllers/1/reservations", nil)
	list := decode[struct {
		Count int                  `json:"count"`
		Data  []models.Reservation `json:"data"`
	}](t, w)
	if list.Count != 2 || list.Data[0].Time != "16:00" {
		t.Errorf("list = %+v", list)
	}

	w = do(t, h, http.MethodDelete, "/api/v1/reservations", map[string]any{"ids": []int{1, 2}})
	if w.Code != http.StatusOK || decode[map[string]int](t, w)["deleted"] != 2 {
		t.Errorf("delete status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/v1/reservations/1/toggle", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("toggle deleted status %d", w.Code)
	}
}

func TestReservationsUnknownController(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, http.MethodGet, "/api/v1/controllers/77/reservations", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/v1/controllers/abc/reservations", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d", w.Code)
	}
}

func TestThresholdEndpoints(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/api/v1/controllers/1/threshold", nil)
	got := decode[map[string]float64](t, w)
	if got["threshold"] != 0 || got["average"] != 120 {
		t.Errorf("get = %v", got)
	}

	w = do(t, h, http.MethodPut, "/api/v1/controllers/1/threshold", map[string]string{"value": "999"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("999 status %d", w.Code)
	}
	if msg := decode[map[string]string](t, w)["error"]; msg != "최근 7일 평균 사용량 이하로 입력해주세요." {
		t.Errorf("message = %q", msg)
	}

	w = do(t, h, http.MethodPut, "/api/v1/controllers/1/threshold", map[string]string{"value": "1.5"})
	if msg := decode[map[string]string](t, w)["error"]; msg != "0 이상의 정수만 입력할 수 있습니다." {
		t.Errorf("message = %q", msg)
	}

	w = do(t, h, http.MethodPut, "/api/v1/controllers/1/threshold", map[string]string{"value": "100"})
	if w.Code != http.StatusOK {
		t.Fatalf("100 status %d: %s", w.Code, w.Body.String())
	}
	res := decode[threshold.Result](t, w)
	if res.Threshold != 100 || !res.EffectiveAt.Equal(now.Add(10*time.Minute)) {
		t.Errorf("result = %+v", res)
	}
}

func TestUsageAndPower(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodGet, "/api/v1/controllers/2/usage/daily", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("usage status %d", w.Code)
	}
	view := decode[struct {
		Stats models.UsageStats   `json:"stats"`
		Chart []models.ChartPoint `json:"chart"`
		YMax  float64             `json:"yMax"`
	}](t, w)
	if len(view.Chart) != 7 || view.Stats.Average != 140 || view.YMax < 140 {
		t.Errorf("view = %+v", view)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/controllers/2/usage/minutely", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad tab status %d", w.Code)
	}

	w = do(t, h, http.MethodPut, "/api/v1/controllers/2/power", map[string]bool{"on": false})
	if w.Code != http.StatusOK {
		t.Fatalf("power status %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/v1/controllers/2/power", nil)
	if decode[map[string]any](t, w)["on"] != false {
		t.Errorf("power = %s", w.Body.String())
	}
	if w := do(t, h, http.MethodPut, "/api/v1/controllers/2/power", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing on status %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/v1/controllers/9/power", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown power status %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/v1/controllers", nil)
	list := decode[struct {
		Data []struct {
			ID int  `json:"id"`
			On bool `json:"on"`
		} `json:"data"`
	}](t, w)
	if len(list.Data) != 3 || list.Data[1].On {
		t.Errorf("controllers = %+v", list)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	h := newTestRouter(t)
	w := do(t, h, http.MethodGet, "/api/v1/calendar/2026/12", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := decode[struct {
		Days [6][7]struct {
			Day  int  `json:"day"`
			Past bool `json:"past"`
		} `json:"days"`
		Next struct{ Year, Month int } `json:"next"`
	}](t, w)
	// 2026-12-01 is a Tuesday
	if body.Days[0][2].Day != 1 || body.Days[0][2].Past {
		t.Errorf("first cell = %+v", body.Days[0])
	}
	if body.Next.Year != 2027 || body.Next.Month != 1 {
		t.Errorf("next = %+v", body.Next)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/calendar/2026/13", nil); w.Code != http.StatusBadRequest {
		t.Errorf("month 13 status %d", w.Code)
	}
}

func TestListShowsExpiredReservationsOff(t *testing.T) {
	h := newTestRouter(t)

	// A raw label skips the date picker floor
	w := do(t, h, http.MethodPost, "/api/v1/controllers/1/reservations", map[string]any{
		"time": "08:00", "dateLabel": "2026년 10월 16일 (금)",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/v1/controllers/1/reservations", nil)
	list := decode[struct {
		Data []models.Reservation `json:"data"`
	}](t, w)
	if len(list.Data) != 1 || list.Data[0].IsOn {
		t.Errorf("list = %+v", list.Data)
	}
}
