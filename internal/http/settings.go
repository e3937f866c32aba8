package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, newSettingsPayload(h.settings.Current()))
}

// updateSettings only changes future recomputes; stored totals stay as they are.
func (h *Handler) updateSettings(c *gin.Context) {
	var req settingsPayload
	if !h.bindJSON(c, &req) {
		return
	}
	updated, err := h.settings.Update(c.Request.Context(), req.toModel())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSettingsPayload(updated))
}
