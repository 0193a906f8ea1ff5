package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

const (
	authorHeader  = "X-User"
	defaultAuthor = "api"
	queryDate     = "2006-01-02"
)

type errorResponse struct {
	Code    models.ErrorKind `json:"code"`
	Message string           `json:"message"`
}

// writeError maps domain error kinds onto HTTP statuses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var domainErr *models.Error
	if !errors.As(err, &domainErr) {
		logger.Error("unexpected failure", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case models.KindInvalidInput:
		status = http.StatusBadRequest
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
		logger.Error("store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, errorResponse{Code: domainErr.Kind, Message: domainErr.Message})
}

func author(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(authorHeader)); v != "" {
		return v
	}
	return defaultAuthor
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewInvalidInput("%s must be an integer", name)
	}
	return v, nil
}

// queryTime parses a YYYY-MM-DD or RFC3339 bound. A date-only upper bound
// covers the whole day.
func queryTime(c *gin.Context, name string, upper bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(queryDate, raw)
	if err != nil {
		return nil, models.NewInvalidInput("%s must be YYYY-MM-DD or RFC3339", name)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
