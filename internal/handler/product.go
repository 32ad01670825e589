package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.POST("/bulk-delete", h.BulkDelete)
	group.POST("/bulk-restore", h.BulkRestore)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/restore", h.Restore)
	group.DELETE("/:id/hard", h.HardDelete)
}

func (h *ProductHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	filter := repository.ProductFilter{
		Search:      c.Query("search"),
		Ordering:    c.Query("ordering"),
		DeletedOnly: c.Query("deleted") == "true",
	}
	if raw := c.Query("category"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cid := uint(id)
			filter.CategoryID = &cid
		}
	}
	filter.PriceGte = queryDecimal(c, "price__gte")
	filter.PriceLte = queryDecimal(c, "price__lte")
	filter.StockGte = queryIntPtr(c, "stock__gte")
	filter.StockLte = queryIntPtr(c, "stock__lte")

	page, err := h.svc.List(c.Request.Context(), actor, service.ProductQuery{
		Filter:   filter,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	})
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) Get(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req model.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	product, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req model.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	product, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete is the default destroy: a soft delete.
func (h *ProductHandler) Delete(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.SoftDelete(c.Request.Context(), actor, id); err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "product soft deleted"})
}

func (h *ProductHandler) Restore(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.svc.Restore(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) HardDelete(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.HardDelete(c.Request.Context(), actor, id); err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "product hard deleted"})
}

func (h *ProductHandler) BulkDelete(c *gin.Context) {
	h.bulk(c, h.svc.BulkSoftDelete)
}

func (h *ProductHandler) BulkRestore(c *gin.Context) {
	h.bulk(c, h.svc.BulkRestore)
}

type bulkOp func(ctx context.Context, actor *model.User, ids []uint) (*model.BulkResult, error)

func (h *ProductHandler) bulk(c *gin.Context, op bulkOp) {
	actor := middleware.ActorFrom(c)

	var req model.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	if len(req.IDs) == 0 {
		c.Error(apperrors.NewInvalidRequest("ids must not be empty"))
		return
	}

	result, err := op(c.Request.Context(), actor, req.IDs)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewNotFound("not found"))
		return 0, false
	}
	return uint(id), true
}

func queryIntPtr(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

func queryDecimal(c *gin.Context, name string) *decimal.Decimal {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &value
}
