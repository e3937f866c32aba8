package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/service"
	"github.com/rivadavia/grainops/internal/settings"
	"github.com/rivadavia/grainops/internal/settlement"
)

type SettingsStore interface {
	Current() model.Settings
	Update(ctx context.Context, next model.Settings) (model.Settings, error)
}

type TicketScanner interface {
	ScanTicket(ctx context.Context, image []byte, mimeType string) (*model.TicketGuess, error)
}

type Handler struct {
	ops       *service.OperationService
	contacts  *service.ContactService
	docs      *service.DocumentService
	settings  SettingsStore
	scanner   TicketScanner
	log       zerolog.Logger
	heartbeat time.Duration
}

func NewHandler(
	ops *service.OperationService,
	contacts *service.ContactService,
	docs *service.DocumentService,
	settingsStore SettingsStore,
	scanner TicketScanner,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		ops:       ops,
		contacts:  contacts,
		docs:      docs,
		settings:  settingsStore,
		scanner:   scanner,
		log:       log,
		heartbeat: 25 * time.Second,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/operations", h.listOperations)
	protected.POST("/operations", h.createOperation)
	protected.GET("/operations/events", h.streamEvents)
	protected.GET("/operations/export.csv", h.exportCSV)
	protected.GET("/operations/export.xlsx", h.exportExcel)
	protected.GET("/operations/:id", h.getOperation)
	protected.PATCH("/operations/:id", h.updateOperation)
	protected.DELETE("/operations/:id", h.deleteOperation)
	protected.POST("/operations/:id/status", h.changeStatus)
	protected.POST("/operations/:id/recompute", h.recomputeOperation)
	protected.PUT("/operations/:id/trucks", h.replaceTrucks)
	protected.POST("/operations/:id/trucks", h.addTruck)
	protected.PATCH("/operations/:id/trucks/:truckID", h.updateTruck)
	protected.DELETE("/operations/:id/trucks/:truckID", h.removeTruck)

	protected.GET("/liquidations", h.listLiquidations)
	protected.GET("/liquidations/:id/pdf", h.liquidationPDF)

	protected.GET("/contacts", h.listContacts)
	protected.POST("/contacts", h.createContact)
	protected.GET("/contacts/:id", h.getContact)
	protected.PATCH("/contacts/:id", h.updateContact)
	protected.DELETE("/contacts/:id", h.deleteContact)

	protected.GET("/settings", h.getSettings)
	protected.PUT("/settings", h.updateSettings)
	protected.GET("/stats", h.stats)
	protected.POST("/ocr/tickets", h.scanTicket)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fieldName(fe)] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": fields})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, settings.ErrInvalidSettings):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNothingToExport):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOperationLocked),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNotLiquidatable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, settlement.ErrCalculationFailed):
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("settlement calculation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calculation failed"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindJSON binds the body; malformed JSON is a 400, rule violations a 422.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			h.handleError(c, err)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	return ns
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		dateLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"02/01/2006",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func sendDocument(c *gin.Context, doc *service.Document) {
	c.Header("Content-Disposition", "attachment; filename=\""+doc.FileName+"\"")
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
