package carelog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carebridge/carelog-api/internal/handler"
	"github.com/carebridge/carelog-api/internal/middleware"
	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/service/audit"
	"github.com/carebridge/carelog-api/internal/service/carelog"
	"github.com/carebridge/carelog-api/internal/service/visibility"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
	"github.com/carebridge/carelog-api/pkg/metrics"
)

type Handler struct {
	service    *carelog.Service
	visibility *visibility.Service
	audit      *audit.Service
	metrics    *metrics.Metrics
}

func NewHandler(service *carelog.Service, visibilitySvc *visibility.Service, auditSvc *audit.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		service:    service,
		visibility: visibilitySvc,
		audit:      auditSvc,
		metrics:    m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	logs := r.Group("/care-logs")
	{
		logs.POST("", h.CreateDraft)
		logs.GET("/:id", h.GetCareLog)
		logs.PATCH("/:id", h.PatchCareLog)
		logs.POST("/:id/sections/:section/submit", h.SubmitSection)
		logs.POST("/:id/submit", h.SubmitCareLog)
		logs.POST("/:id/invalidate", auth.RequireRole(model.RoleFamilyAdmin), h.InvalidateCareLog)
		logs.POST("/:id/view", h.MarkViewed)
		logs.GET("/:id/audit", h.ListAudit)
	}

	recipients := r.Group("/care-recipients")
	{
		recipients.GET("/:id/care-logs/today", h.GetToday)
		recipients.GET("/:id/care-logs", h.ListRange)
	}
}

func (h *Handler) CreateDraft(c *gin.Context) {
	var req model.CreateCareLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recipientID, err := uuid.Parse(req.CareRecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid care recipient ID"))
		return
	}

	var logDate model.Date
	if req.LogDate != "" {
		logDate, err = model.ParseDate(req.LogDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid log date"))
			return
		}
	}

	authorID, ok := h.currentUser(c)
	if !ok {
		return
	}

	log, err := h.service.CreateDraft(c.Request.Context(), recipientID, authorID, logDate)
	h.count("create", err)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(log))
}

func (h *Handler) GetCareLog(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	log, err := h.service.Get(c.Request.Context(), careLogID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	decorated, err := h.visibility.Decorate(c.Request.Context(), log, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(decorated))
}

func (h *Handler) PatchCareLog(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}
	authorID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req model.PatchCareLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	log, err := h.service.ApplyPatch(c.Request.Context(), careLogID, authorID, req.Fields)
	h.count("patch", err)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) SubmitSection(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}
	authorID, ok := h.currentUser(c)
	if !ok {
		return
	}

	section := model.Section(c.Param("section"))
	if !model.ValidSection(section) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unknown section"))
		return
	}

	log, err := h.service.SubmitSection(c.Request.Context(), careLogID, section, authorID)
	h.count("submit_section", err)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) SubmitCareLog(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}
	authorID, ok := h.currentUser(c)
	if !ok {
		return
	}

	log, err := h.service.Submit(c.Request.Context(), careLogID, authorID)
	h.count("submit", err)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) InvalidateCareLog(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req model.InvalidateCareLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	log, err := h.service.Invalidate(c.Request.Context(), careLogID, adminID, req.Reason)
	h.count("invalidate", err)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) MarkViewed(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.visibility.MarkViewed(c.Request.Context(), careLogID, userID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListAudit(c *gin.Context) {
	careLogID, ok := h.pathID(c)
	if !ok {
		return
	}

	entries, err := h.audit.History(c.Request.Context(), careLogID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) GetToday(c *gin.Context) {
	recipientID, ok := h.pathID(c)
	if !ok {
		return
	}

	log, err := h.service.GetToday(c.Request.Context(), recipientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if log == nil {
		handler.RespondError(c, apperrors.NotFound("care log", nil))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) ListRange(c *gin.Context) {
	recipientID, ok := h.pathID(c)
	if !ok {
		return
	}

	from, err := model.ParseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date"))
		return
	}
	to, err := model.ParseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date"))
		return
	}

	logs, err := h.service.ListRange(c.Request.Context(), recipientID, from, to)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}

func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) count(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.metrics.CareLogOperations.WithLabelValues(operation, status).Inc()
}
