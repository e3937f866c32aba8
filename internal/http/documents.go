package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rivadavia/grainops/internal/model"
)

func (h *Handler) exportCSV(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	doc, err := h.docs.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendDocument(c, doc)
}

func (h *Handler) exportExcel(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	doc, err := h.docs.ExportExcel(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendDocument(c, doc)
}

func (h *Handler) listLiquidations(c *gin.Context) {
	ops, err := h.docs.ListLiquidations(c.Request.Context(), c.Query("contacto"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newOperationList(ops)})
}

func (h *Handler) liquidationPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	party := model.LiquidationParty(strings.ToLower(strings.TrimSpace(c.DefaultQuery("party", string(model.LiquidationPartyProducer)))))
	doc, err := h.docs.LiquidationPDF(c.Request.Context(), id, party)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendDocument(c, doc)
}
