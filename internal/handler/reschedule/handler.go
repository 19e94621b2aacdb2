package reschedule

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	rescheduleService "github.com/rehablink/physio-api/internal/service/reschedule"
	"github.com/rehablink/physio-api/pkg/errors"
	"github.com/rehablink/physio-api/pkg/httputil"
)

type Handler struct {
	service *rescheduleService.Service
}

func NewHandler(service *rescheduleService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ProposeReschedule(c *gin.Context) {
	var req model.ProposeRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid proposal payload", err))
		return
	}

	created, err := h.service.Propose(c.Request.Context(),
		req.AppointmentID, req.SuggestedDate, req.SuggestedTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, created)
}

func (h *Handler) RespondReschedule(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request ID", err))
		return
	}

	var req model.RespondRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid response payload", err))
		return
	}
	if req.Accept && (req.Date == "" || req.TimeOfDay == "") {
		httputil.RespondWithError(c, errors.BadRequest("accepting requires date and time", nil))
		return
	}

	apt, err := h.service.Respond(c.Request.Context(), requestID, req.Date, req.TimeOfDay, req.Accept)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListPendingForPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Query("patient_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid patient ID", err))
		return
	}

	pending, err := h.service.PendingForPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, pending)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reschedules := r.Group("/reschedules")
	{
		reschedules.POST("", h.ProposeReschedule)
		reschedules.POST("/:id/respond", h.RespondReschedule)
		reschedules.GET("/pending", h.ListPendingForPatient)
	}
}
