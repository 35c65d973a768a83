package handler

import (
	"encoding/json"
	"net/http"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type clientRequest struct {
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	TaxID   string        `json:"tax_id"`
	Address model.Address `json:"address"`
	Active  *bool         `json:"active"`
}

func (req clientRequest) toModel() model.Client {
	c := model.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		TaxID:   req.TaxID,
		Address: req.Address,
		Active:  true,
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	return c
}

type clientPageResponse struct {
	Clients    []model.Client `json:"clients"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := h.clientSvc.Create(r.Context(), req.toModel(), currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("client created", "client_id", client.ID)
	h.writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	filter := repository.ClientFilter{Search: r.URL.Query().Get("search")}

	clients, total, err := h.clientSvc.List(r.Context(), filter, page)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, clientPageResponse{
		Clients:    clients,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages(total, page.Size),
	})
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	client, err := h.clientSvc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, client)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := req.toModel()
	c.ID = id

	client, err := h.clientSvc.Update(r.Context(), c, currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.clientSvc.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("client deleted", "client_id", id)
	w.WriteHeader(http.StatusNoContent)
}
