package provider

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/opd-queue/internal/handler"
	"github.com/jwalitptl/opd-queue/internal/service/query"
)

type Handler struct {
	querySvc *query.Service
}

func NewHandler(querySvc *query.Service) *Handler {
	return &Handler{querySvc: querySvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	providers := r.Group("/providers")
	{
		providers.GET("", h.ListProviders)
		providers.GET("/:id/queue", h.GetQueue)
	}
}

func (h *Handler) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.querySvc.ListProviders()))
}

func (h *Handler) GetQueue(c *gin.Context) {
	queue, err := h.querySvc.QueueFor(c.Param("id"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(queue))
}
