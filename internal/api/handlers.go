package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jgoulah/powerguard/internal/calendar"
	"github.com/jgoulah/powerguard/internal/picker"
	"github.com/jgoulah/powerguard/internal/state"
	"github.com/jgoulah/powerguard/internal/usage"
	"github.com/jgoulah/powerguard/pkg/models"
)

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return id, true
}

type controllerView struct {
	models.Controller
	On bool `json:"on"`
}

// GET /api/v1/controllers
func (s *Server) listControllers(c *gin.Context) {
	list, err := s.Controllers.List()
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]controllerView, 0, len(list))
	for _, ctl := range list {
		on, _ := s.Power.Power(ctl.ID)
		out = append(out, controllerView{Controller: ctl, On: on})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "data": out})
}

// GET /api/v1/controllers/:id
func (s *Server) getController(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctl, err := s.Controllers.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	on, _ := s.Power.Power(id)
	c.JSON(http.StatusOK, controllerView{Controller: ctl, On: on})
}

// GET /api/v1/controllers/:id/power
func (s *Server) getPower(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	on, known := s.Power.Power(id)
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "컨트롤러를 찾을 수 없습니다."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"controllerId": id, "on": on})
}

// PUT /api/v1/controllers/:id/power
func (s *Server) setPower(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		On *bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.On == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "on is required"})
		return
	}

	changed, err := s.Power.SetPower(id, *req.On, state.SourceManual)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"controllerId": id, "on": *req.On, "changed": changed})
}

type reservationRequest struct {
	Time      string         `json:"time"`
	AmPm      string         `json:"ampm"`
	Hour      int            `json:"hour"`
	Minute    string         `json:"minute"`
	DateLabel string         `json:"dateLabel"`
	Date      *calendar.Date `json:"date"`
	Weekdays  []string       `json:"weekdays"`
}

// resolve turns either the raw fields or the picker fields into a time and
// date label. Picked dates before today are rejected.
func (r reservationRequest) resolve(now time.Time) (string, string, error) {
	timeStr := r.Time
	if timeStr == "" {
		t, err := picker.To24h(picker.Time{AmPm: r.AmPm, Hour: r.Hour, Minute: r.Minute})
		if err != nil {
			return "", "", err
		}
		timeStr = t
	}

	if r.DateLabel != "" {
		return timeStr, r.DateLabel, nil
	}

	sel := &calendar.Selection{}
	switch {
	case r.Date != nil:
		if !r.Date.Valid() {
			return "", "", fmt.Errorf("%w: %s", calendar.ErrInvalidLabel, r.Date)
		}
		p := calendar.NewDatePicker(*r.Date)
		if err := p.ConfirmInto(sel, calendar.DateOf(now)); err != nil {
			return "", "", err
		}
	default:
		for _, name := range r.Weekdays {
			w, ok := calendar.ParseWeekday(name)
			if !ok {
				return "", "", fmt.Errorf("%w: unknown weekday %q", calendar.ErrInvalidLabel, name)
			}
			sel.ToggleWeekday(w)
		}
	}

	label, err := sel.Label()
	if err != nil {
		return "", "", err
	}
	return timeStr, label, nil
}

// GET /api/v1/controllers/:id/reservations
func (s *Server) listReservations(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := s.Controllers.Get(id); err != nil {
		writeError(c, err)
		return
	}

	list, err := s.Reservations.List(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"controllerId": id, "count": len(list), "data": list})
}

// POST /api/v1/controllers/:id/reservations
func (s *Server) createReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := s.Controllers.Get(id); err != nil {
		writeError(c, err)
		return
	}

	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	timeStr, label, err := req.resolve(s.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.Reservations.Create(id, timeStr, label)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// PUT /api/v1/reservations/:rid
func (s *Server) updateReservation(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}

	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	timeStr, label, err := req.resolve(s.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.Reservations.Update(rid, timeStr, label)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/v1/reservations/:rid/toggle
func (s *Server) toggleReservation(c *gin.Context) {
	rid, ok := paramID(c, "rid")
	if !ok {
		return
	}
	res, err := s.Reservations.Toggle(rid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /api/v1/reservations
func (s *Server) deleteReservations(c *gin.Context) {
	var req struct {
		IDs []int `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	n, err := s.Reservations.Delete(req.IDs...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// GET /api/v1/controllers/:id/threshold
func (s *Server) getThreshold(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := s.Thresholds.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	avg, err := s.Thresholds.Average(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"controllerId": id, "threshold": v, "average": avg})
}

// PUT /api/v1/controllers/:id/threshold
func (s *Server) setThreshold(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.Thresholds.Set(id, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/controllers/:id/usage/:tab
func (s *Server) getUsage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tab, ok := models.ParseTab(c.Param("tab"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tab"})
		return
	}

	b, err := s.PowerData.Bundle(id)
	if err != nil {
		writeError(c, err)
		return
	}
	view, _ := usage.View(b, tab)
	c.JSON(http.StatusOK, view)
}

// GET /api/v1/calendar/:year/:month
func (s *Server) getCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	m := calendar.Month{Year: year, Month: month}
	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"month": month,
		"days":  m.Days(s.Now()),
		"prev":  m.Prev(),
		"next":  m.Next(),
	})
}
