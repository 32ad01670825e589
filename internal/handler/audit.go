package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/service"
)

type AuditHandler struct {
	svc *service.AuditQueryService
}

func NewAuditHandler(svc *service.AuditQueryService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// RegisterRoutes mounts the read-only audit API. The write verbs are
// registered explicitly so they answer 405, not 404.
func (h *AuditHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.Use(middleware.ReadOnly())

	group.GET("", h.List)
	group.GET("/recent", h.Recent)
	group.GET("/:id", h.Detail)

	noop := func(c *gin.Context) {}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		group.Handle(method, "", noop)
		group.Handle(method, "/:id", noop)
	}
}

func (h *AuditHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if actor == nil {
		c.Error(apperrors.New(apperrors.ErrAuthFailed, "authentication required", nil))
		return
	}

	query := service.AuditQuery{
		Action:      c.Query("action"),
		Status:      c.Query("status"),
		Resource:    c.Query("resource"),
		ContentType: c.Query("content_type"),
		ObjectID:    c.Query("object_id"),
		Search:      c.Query("search"),
		Ordering:    c.Query("ordering"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
	}

	if raw := c.Query("user"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			uid := uint(id)
			query.UserID = &uid
		}
	}
	// Unparseable time bounds degrade to "no bound" rather than erroring.
	query.CreatedAtGte = queryTime(c, "created_at__gte")
	query.CreatedAtLte = queryTime(c, "created_at__lte")

	page, err := h.svc.List(c.Request.Context(), actor, query)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AuditHandler) Detail(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if actor == nil {
		c.Error(apperrors.New(apperrors.ErrAuthFailed, "authentication required", nil))
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewNotFound("audit record not found"))
		return
	}

	record, err := h.svc.Get(c.Request.Context(), actor, uint(id))
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AuditHandler) Recent(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	if actor == nil {
		c.Error(apperrors.New(apperrors.ErrAuthFailed, "authentication required", nil))
		return
	}

	records, err := h.svc.Recent(c.Request.Context(), actor, queryInt(c, "limit", 100))
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, records)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryTime(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := parseTime(raw)
	if err != nil {
		logger.Debug("ignoring malformed time filter", "param", name, "value", raw)
		return nil
	}
	return &t
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
