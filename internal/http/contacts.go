package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rivadavia/grainops/internal/model"
)

func (h *Handler) listContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context(), model.ContactType(c.Query("tipo")), c.Query("q"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	items := make([]contactResponse, 0, len(contacts))
	for _, contact := range contacts {
		items = append(items, newContactResponse(contact))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) createContact(c *gin.Context) {
	var req contactRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newContactResponse(*contact))
}

func (h *Handler) getContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	contact, err := h.contacts.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContactResponse(*contact))
}

func (h *Handler) updateContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req contactRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContactResponse(*contact))
}

func (h *Handler) deleteContact(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.contacts.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
