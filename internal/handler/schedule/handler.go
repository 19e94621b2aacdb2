package schedule

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	scheduleService "github.com/rehablink/physio-api/internal/service/schedule"
	"github.com/rehablink/physio-api/pkg/errors"
	"github.com/rehablink/physio-api/pkg/httputil"
)

type Handler struct {
	service *scheduleService.Service
}

func NewHandler(service *scheduleService.Service) *Handler {
	return &Handler{service: service}
}

// badged pairs an appointment with its display classification.
type badged struct {
	*model.Appointment
	Badge model.Badge `json:"badge"`
}

func withBadges(appointments []*model.Appointment) []badged {
	out := make([]badged, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, badged{Appointment: a, Badge: scheduleService.Classify(a)})
	}
	return out
}

func (h *Handler) Today(c *gin.Context) {
	physioID, err := uuid.Parse(c.Query("physiotherapist_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid physiotherapist ID", err))
		return
	}

	appointments, err := h.service.Today(c.Request.Context(), physioID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, withBadges(appointments))
}

func (h *Handler) Upcoming(c *gin.Context) {
	physioID, err := uuid.Parse(c.Query("physiotherapist_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid physiotherapist ID", err))
		return
	}

	appointments, err := h.service.Upcoming(c.Request.Context(), physioID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, withBadges(appointments))
}

func (h *Handler) History(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid patient ID", err))
		return
	}

	appointments, err := h.service.History(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, withBadges(appointments))
}

func (h *Handler) Roster(c *gin.Context) {
	physioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid physiotherapist ID", err))
		return
	}

	appointments, err := h.service.Roster(c.Request.Context(), physioID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, withBadges(appointments))
}

func (h *Handler) MostRelevant(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid patient ID", err))
		return
	}

	apt, err := h.service.MostRelevant(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if apt == nil {
		httputil.RespondWithSuccess(c, nil)
		return
	}

	httputil.RespondWithSuccess(c, badged{Appointment: apt, Badge: scheduleService.Classify(apt)})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	schedule := r.Group("/schedule")
	{
		schedule.GET("/today", h.Today)
		schedule.GET("/upcoming", h.Upcoming)
		schedule.GET("/patients/:id/history", h.History)
		schedule.GET("/patients/:id/relevant", h.MostRelevant)
		schedule.GET("/physiotherapists/:id/roster", h.Roster)
	}
}
