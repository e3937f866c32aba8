package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rivadavia/grainops/internal/http/middleware"
	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/service"
)

func (h *Handler) listOperations(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	ops, err := h.ops.ListOperations(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newOperationList(ops)})
}

func (h *Handler) createOperation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createOperationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := service.CreateOperationInput{
		Producer:         req.Productor,
		Buyer:            req.Comprador,
		Transporter:      req.Transportista,
		Cereal:           req.Cereal,
		Currency:         model.Currency(req.Moneda),
		ExchangeRate:     req.TipoDeCambio.Float64(),
		ProducerPriceARS: req.PrecioProductor.Float64(),
		BuyerPriceARS:    req.PrecioComprador.Float64(),
		Notes:            req.Notas,
		Principal:        principal,
	}
	if strings.TrimSpace(req.Fecha) != "" {
		date, err := parseDate(req.Fecha)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fecha"})
			return
		}
		input.Date = date
	}
	for _, truck := range req.Camiones {
		input.Trucks = append(input.Trucks, truck.toInput())
	}

	op, err := h.ops.CreateOperation(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOperationResponse(*op))
}

func (h *Handler) getOperation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	op, err := h.ops.GetOperation(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) updateOperation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateOperationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	input := service.UpdateOperationInput{
		Producer:         req.Productor,
		Buyer:            req.Comprador,
		Transporter:      req.Transportista,
		Cereal:           req.Cereal,
		ExchangeRate:     floatPtr(req.TipoDeCambio),
		ProducerPriceARS: floatPtr(req.PrecioProductor),
		BuyerPriceARS:    floatPtr(req.PrecioComprador),
		Notes:            req.Notas,
	}
	if req.Moneda != nil {
		currency := model.Currency(*req.Moneda)
		input.Currency = &currency
	}
	if req.Fecha != nil {
		date, err := parseDate(*req.Fecha)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fecha"})
			return
		}
		input.Date = &date
	}

	op, err := h.ops.UpdateOperation(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) deleteOperation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ops.DeleteOperation(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	op, err := h.ops.ChangeStatus(c.Request.Context(), id, model.OperationStatus(strings.TrimSpace(req.Estado)))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) recomputeOperation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	op, err := h.ops.RecomputeOperation(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) replaceTrucks(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req replaceTrucksRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inputs := make([]service.TruckInput, 0, len(req.Camiones))
	for _, truck := range req.Camiones {
		inputs = append(inputs, truck.toInput())
	}
	op, err := h.ops.ReplaceTrucks(c.Request.Context(), id, inputs)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) addTruck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req truckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	op, err := h.ops.AddTruck(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newOperationResponse(*op))
}

func (h *Handler) updateTruck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	truckID, ok := parseID(c, "truckID")
	if !ok {
		return
	}
	var req truckPatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	op, err := h.ops.UpdateTruck(c.Request.Context(), id, truckID, req.toPatch())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) removeTruck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	truckID, ok := parseID(c, "truckID")
	if !ok {
		return
	}
	op, err := h.ops.RemoveTruck(c.Request.Context(), id, truckID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOperationResponse(*op))
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.ops.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		TotalOperaciones:     stats.TotalOperations,
		OperacionesPendiente: stats.PendingOperations,
		TotalNetoTon:         stats.TotalNetTonnes,
		TotalComisionARS:     stats.TotalCommissionARS,
		TotalContactos:       stats.ContactsCount,
	})
}

// parseFilter reads estado, q, contacto, desde, hasta and completadas.
func parseFilter(c *gin.Context) (model.OperationFilter, bool) {
	filter := model.OperationFilter{
		Status:        model.OperationStatus(strings.TrimSpace(c.Query("estado"))),
		Search:        c.Query("q"),
		Contact:       c.Query("contacto"),
		CompletedOnly: c.Query("completadas") == "true",
	}
	if raw := c.Query("desde"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid desde"})
			return filter, false
		}
		filter.From = from
	}
	if raw := c.Query("hasta"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hasta"})
			return filter, false
		}
		filter.To = to
	}
	return filter, true
}
