package physiotherapist

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rehablink/physio-api/internal/model"
	"github.com/rehablink/physio-api/internal/service/directory"
	"github.com/rehablink/physio-api/pkg/errors"
	"github.com/rehablink/physio-api/pkg/httputil"
)

type Handler struct {
	service *directory.Service
}

func NewHandler(service *directory.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPhysiotherapist(c *gin.Context) {
	var req model.RegisterPhysiotherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid physiotherapist payload", err))
		return
	}

	physio, err := h.service.RegisterPhysiotherapist(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, physio)
}

func (h *Handler) GetPhysiotherapist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid physiotherapist ID", err))
		return
	}

	physio, err := h.service.GetPhysiotherapist(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, physio)
}

func (h *Handler) FindByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httputil.RespondWithError(c, errors.BadRequest("email is required", nil))
		return
	}

	physio, err := h.service.GetPhysiotherapistByEmail(c.Request.Context(), email)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, physio)
}

func (h *Handler) AssignPatient(c *gin.Context) {
	physioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid physiotherapist ID", err))
		return
	}

	var req struct {
		PatientID uuid.UUID `json:"patient_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid assignment payload", err))
		return
	}

	if err := h.service.AssignPatient(c.Request.Context(), physioID, req.PatientID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, nil)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	physios := r.Group("/physiotherapists")
	{
		physios.POST("", h.RegisterPhysiotherapist)
		physios.GET("/lookup", h.FindByEmail)
		physios.GET("/:id", h.GetPhysiotherapist)
		physios.POST("/:id/patients", h.AssignPatient)
	}
}
