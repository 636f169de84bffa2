package queue

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/opd-queue/internal/handler"
	"github.com/jwalitptl/opd-queue/internal/model"
	"github.com/jwalitptl/opd-queue/internal/service/admission"
	"github.com/jwalitptl/opd-queue/internal/service/query"
	"github.com/jwalitptl/opd-queue/internal/service/transition"
)

type Handler struct {
	admissionSvc  admission.AdmissionService
	transitionSvc transition.TransitionService
	querySvc      *query.Service
}

func NewHandler(admissionSvc admission.AdmissionService, transitionSvc transition.TransitionService, querySvc *query.Service) *Handler {
	return &Handler{
		admissionSvc:  admissionSvc,
		transitionSvc: transitionSvc,
		querySvc:      querySvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	requests := r.Group("/queue/requests")
	{
		requests.POST("", h.Admit)
		requests.POST("/:id/transitions", h.Transition)
	}
	r.GET("/sessions/:token", h.GetSession)
}

func (h *Handler) Admit(c *gin.Context) {
	var req model.AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	token, err := h.admissionSvc.Admit(c.Request.Context(), req.ProviderID, req.RequesterInfo)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"token": token}))
}

func (h *Handler) Transition(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request ID"))
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.transitionSvc.Transition(c.Request.Context(), requestID, req.Status); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"id": requestID, "status": req.Status}))
}

func (h *Handler) GetSession(c *gin.Context) {
	session := h.querySvc.SessionFor(c.Param("token"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(session))
}
