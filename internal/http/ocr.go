package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rivadavia/grainops/internal/ocr"
)

const maxTicketImageBytes = 8 << 20

func (h *Handler) scanTicket(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	if header.Size > maxTicketImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxTicketImageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}

	guess, err := h.scanner.ScanTicket(c.Request.Context(), image, header.Header.Get("Content-Type"))
	switch {
	case err == nil:
	case errors.Is(err, ocr.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ocr.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	default:
		h.log.Warn().Err(err).Msg("ticket scan failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "no se pudo leer el comprobante, ingrese los datos manualmente"})
		return
	}

	c.JSON(http.StatusOK, ticketGuessResponse{
		Patente:    guess.LicensePlate,
		CartaPorte: guess.Waybill,
		BrutoKg:    guess.GrossWeightKg,
		TaraKg:     guess.TareWeightKg,
		Raw:        guess.Raw,
	})
}
