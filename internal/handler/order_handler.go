package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
	"orderdesk/internal/service"
)

type orderLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type createOrderRequest struct {
	ClientID int64              `json:"client_id"`
	Items    []orderLineRequest `json:"items"`
}

type updateOrderRequest struct {
	Status model.OrderStatus `json:"status"`
}

type orderPageResponse struct {
	Orders     []model.Order `json:"orders"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]service.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderSvc.CreateOrder(r.Context(), req.ClientID, lines, currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("order created",
		"order_id", order.ID, "client_id", order.ClientID, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	filter := repository.OrderFilter{
		Status: model.OrderStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("client_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid client_id")
			return
		}
		filter.ClientID = id
	}

	orders, total, err := h.orderSvc.List(r.Context(), filter, page, currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orderPageResponse{
		Orders:     orders,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages(total, page.Size),
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	order, err := h.orderSvc.Get(r.Context(), id, currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderSvc.UpdateStatus(r.Context(), id, req.Status, currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.orderSvc.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("order deleted", "order_id", id)
	w.WriteHeader(http.StatusNoContent)
}
