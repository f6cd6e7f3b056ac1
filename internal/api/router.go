// Package api exposes controllers, reservations, thresholds and usage charts over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jgoulah/powerguard/internal/calendar"
	"github.com/jgoulah/powerguard/internal/picker"
	"github.com/jgoulah/powerguard/internal/reservation"
	"github.com/jgoulah/powerguard/internal/state"
	"github.com/jgoulah/powerguard/internal/storage"
	"github.com/jgoulah/powerguard/internal/threshold"
)

// Server holds the handler dependencies
type Server struct {
	Controllers  *storage.ControllerRepo
	PowerData    *storage.PowerDataRepo
	Reservations *reservation.Scheduler
	Thresholds   *threshold.Manager
	Power        *state.Container
	Now          func() time.Time
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	if s.Now == nil {
		s.Now = time.Now
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		ctl := v1.Group("/controllers")
		{
			ctl.GET("", s.listControllers)
			ctl.GET("/:id", s.getController)
			ctl.GET("/:id/power", s.getPower)
			ctl.PUT("/:id/power", s.setPower)
			ctl.GET("/:id/reservations", s.listReservations)
			ctl.POST("/:id/reservations", s.createReservation)
			ctl.GET("/:id/threshold", s.getThreshold)
			ctl.PUT("/:id/threshold", s.setThreshold)
			ctl.GET("/:id/usage/:tab", s.getUsage)
		}

		res := v1.Group("/reservations")
		{
			res.PUT("/:rid", s.updateReservation)
			res.POST("/:rid/toggle", s.toggleReservation)
			res.DELETE("", s.deleteReservations)
		}

		v1.GET("/calendar/:year/:month", s.getCalendar)
	}

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// UserMessage maps an error to the message shown to the user
func UserMessage(err error) string {
	switch {
	case errors.Is(err, reservation.ErrDuplicate):
		return "이미 같은 시간과 날짜의 예약이 있습니다."
	case errors.Is(err, reservation.ErrNotFound):
		return "예약을 찾을 수 없습니다."
	case errors.Is(err, storage.ErrControllerNotFound):
		return "컨트롤러를 찾을 수 없습니다."
	case errors.Is(err, threshold.ErrNotNumeric):
		return "0 이상의 정수만 입력할 수 있습니다."
	case errors.Is(err, threshold.ErrExceedsAverage):
		return "최근 7일 평균 사용량 이하로 입력해주세요."
	case errors.Is(err, calendar.ErrPastDate):
		return "지난 날짜는 선택할 수 없습니다."
	case errors.Is(err, picker.ErrInvalidTime):
		return "시간 형식이 올바르지 않습니다."
	case errors.Is(err, calendar.ErrInvalidLabel), errors.Is(err, calendar.ErrEmptySelection):
		return "날짜 또는 요일을 선택해주세요."
	default:
		return "요청을 처리하지 못했습니다."
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, reservation.ErrNotFound), errors.Is(err, storage.ErrControllerNotFound):
		return http.StatusNotFound
	case errors.Is(err, reservation.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, threshold.ErrNotNumeric), errors.Is(err, threshold.ErrExceedsAverage),
		errors.Is(err, picker.ErrInvalidTime), errors.Is(err, calendar.ErrInvalidLabel),
		errors.Is(err, calendar.ErrEmptySelection), errors.Is(err, calendar.ErrPastDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	body := gin.H{"error": UserMessage(err)}
	if status != http.StatusInternalServerError {
		body["detail"] = err.Error()
	}
	c.JSON(status, body)
}
