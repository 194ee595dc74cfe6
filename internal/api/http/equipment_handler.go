package http

import (
	"net/http"
	"strconv"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/service"
)

type EquipmentHandler struct {
	stock service.StockService
}

func NewEquipmentHandler(stock service.StockService) *EquipmentHandler {
	return &EquipmentHandler{stock: stock}
}

// CheckAvailability answers
// GET /equipment/{id}/availability?startDate&endDate&quantity[&excludeBookingId].
func (h *EquipmentHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	fe := fieldErrors{}
	start := fe.date("startDate", q.Get("startDate"))
	end := fe.date("endDate", q.Get("endDate"))
	qty := 1
	if raw := q.Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fe["quantity"] = "must be an integer"
		}
		qty = n
	}
	var exclude *int32
	if raw := q.Get("excludeBookingId"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			fe["excludeBookingId"] = "must be an integer"
		}
		v := int32(n)
		exclude = &v
	}
	if err := fe.err(); err != nil {
		writeError(w, r, err)
		return
	}

	avail, err := h.stock.CheckAvailability(r.Context(), actor.TenantID, id, start, end, qty, exclude)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAvailability(avail))
}

func (h *EquipmentHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req stockAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	eq, err := h.stock.AdjustStock(r.Context(), actor, id, &domain.StockAdjustmentInput{
		Field:  domain.StockField(req.Field),
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapEquipment(eq))
}

func (h *EquipmentHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, domain.NewValidation("invalid limit", map[string]string{"limit": "must be a non-negative integer"}))
			return
		}
		limit = n
	}
	ms, err := h.stock.ListMovements(r.Context(), actor.TenantID, id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapMovements(ms))
}
