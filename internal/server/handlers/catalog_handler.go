package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

type CatalogService interface {
	UpsertNursery(ctx context.Context, n models.Nursery) (models.Nursery, error)
	UpsertBed(ctx context.Context, b models.GrowBed) (models.GrowBed, error)
	ListNurseries(ctx context.Context) ([]models.Nursery, error)
	ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error)
}

// CatalogHandler serves administrative nursery and bed endpoints.
type CatalogHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

func (h *CatalogHandler) ListNurseries(c *gin.Context) {
	nurseries, err := h.svc.ListNurseries(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nurseries": nurseries})
}

// PutNursery upserts the nursery addressed by the path.
func (h *CatalogHandler) PutNursery(c *gin.Context) {
	var n models.Nursery
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: models.KindInvalidInput, Message: "invalid request body"})
		return
	}
	n.ID = c.Param("nurseryId")

	saved, err := h.svc.UpsertNursery(c.Request.Context(), n)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *CatalogHandler) ListBeds(c *gin.Context) {
	beds, err := h.svc.ListBeds(c.Request.Context(), c.Param("nurseryId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"beds": beds})
}

// PutBed upserts the bed addressed by the path. Statistics in the body are ignored.
func (h *CatalogHandler) PutBed(c *gin.Context) {
	var b models.GrowBed
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: models.KindInvalidInput, Message: "invalid request body"})
		return
	}
	b.NurseryID, b.ID = c.Param("nurseryId"), c.Param("bedId")

	saved, err := h.svc.UpsertBed(c.Request.Context(), b)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
