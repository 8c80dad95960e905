package recipient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/handler"
	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/service/recipient"
)

type Handler struct {
	service *recipient.Service
}

func NewHandler(service *recipient.Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	recipients := r.Group("/care-recipients")
	{
		recipients.POST("", h.CreateCareRecipient)
		recipients.GET("", h.ListCareRecipients)
		recipients.GET("/:id", h.GetCareRecipient)
	}
}

func (h *Handler) CreateCareRecipient(c *gin.Context) {
	var req model.CreateCareRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetCareRecipient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid ID"))
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) ListCareRecipients(c *gin.Context) {
	recipients, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(recipients))
}
