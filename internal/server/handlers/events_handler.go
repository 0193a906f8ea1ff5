package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

// EventService is the cutting event surface exposed over HTTP.
type EventService interface {
	CreateEvent(ctx context.Context, nurseryID, bedID string, input models.EventInput, author string) (string, error)
	ListEventsForBed(ctx context.Context, nurseryID, bedID string, opts models.EventListOptions) ([]models.CuttingEvent, error)
	ListEventsForNursery(ctx context.Context, nurseryID string, opts models.NurseryEventListOptions) (models.NurseryEvents, error)
	UpdateEvent(ctx context.Context, nurseryID, bedID, eventID string, update models.EventUpdate, editor string) error
	DeleteEvent(ctx context.Context, nurseryID, bedID, eventID string) error
	CreateEventsBatch(ctx context.Context, nurseryID, bedID string, inputs []models.EventInput, author string) (models.BatchResult, error)
}

// EventsHandler serves cutting event CRUD.
type EventsHandler struct {
	svc    EventService
	logger *zap.Logger
}

func NewEventsHandler(svc EventService, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{svc: svc, logger: logger}
}

// Create records one cutting event.
func (h *EventsHandler) Create(c *gin.Context) {
	var input models.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: models.KindInvalidInput, Message: "invalid request body"})
		return
	}

	id, err := h.svc.CreateEvent(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"), input, author(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// CreateBatch records several events in one atomic write.
func (h *EventsHandler) CreateBatch(c *gin.Context) {
	var body struct {
		Events []models.EventInput `json:"events"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: models.KindInvalidInput, Message: "invalid request body"})
		return
	}

	result, err := h.svc.CreateEventsBatch(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"), body.Events, author(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// ListForBed lists a bed's events.
func (h *EventsHandler) ListForBed(c *gin.Context) {
	opts, err := bedListOptions(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	events, err := h.svc.ListEventsForBed(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"), opts)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListForNursery lists the events of every bed of a nursery.
func (h *EventsHandler) ListForNursery(c *gin.Context) {
	var opts models.NurseryEventListOptions
	var err error
	if opts.DateFrom, err = queryTime(c, "dateFrom", false); err != nil {
		writeError(c, h.logger, err)
		return
	}
	if opts.DateTo, err = queryTime(c, "dateTo", true); err != nil {
		writeError(c, h.logger, err)
		return
	}
	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		writeError(c, h.logger, err)
		return
	}
	opts.ResponsibleFilter = c.Query("responsible")

	result, err := h.svc.ListEventsForNursery(c.Request.Context(), c.Param("nurseryId"), opts)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update applies a partial update to one event.
func (h *EventsHandler) Update(c *gin.Context) {
	var update models.EventUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: models.KindInvalidInput, Message: "invalid request body"})
		return
	}

	if err := h.svc.UpdateEvent(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"), c.Param("eventId"), update, author(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete removes one event.
func (h *EventsHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteEvent(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"), c.Param("eventId")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bedListOptions(c *gin.Context) (models.EventListOptions, error) {
	opts := models.EventListOptions{
		OrderBy:   c.Query("orderBy"),
		Direction: models.SortDirection(c.Query("direction")),
	}
	var err error
	if opts.DateFrom, err = queryTime(c, "dateFrom", false); err != nil {
		return opts, err
	}
	if opts.DateTo, err = queryTime(c, "dateTo", true); err != nil {
		return opts, err
	}
	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		return opts, err
	}
	return opts, nil
}
