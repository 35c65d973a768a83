package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"
)

type productRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Barcode     string     `json:"barcode"`
	Price       float64    `json:"price"`
	CostPrice   float64    `json:"cost_price"`
	Stock       int        `json:"stock"`
	MinStock    int        `json:"min_stock"`
	Category    string     `json:"category"`
	Brand       string     `json:"brand"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Active      *bool      `json:"active"`
}

func (req productRequest) toModel() model.Product {
	p := model.Product{
		Name:        req.Name,
		Description: req.Description,
		Barcode:     req.Barcode,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Category:    req.Category,
		Brand:       req.Brand,
		ExpiresAt:   req.ExpiresAt,
		Active:      true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	return p
}

type productPageResponse struct {
	Products   []model.Product `json:"products"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productSvc.Create(r.Context(), req.toModel(), currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "barcode", product.Barcode)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)

	filter := repository.ProductFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}
	if v := r.URL.Query().Get("min_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid min_price")
			return
		}
		filter.MinPrice = &price
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		filter.MaxPrice = &price
	}

	products, total, err := h.productSvc.List(r.Context(), filter, page)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, productPageResponse{
		Products:   products,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages(total, page.Size),
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	product, err := h.productSvc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := req.toModel()
	p.ID = id

	product, err := h.productSvc.Update(r.Context(), p, currentUser(r))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.productSvc.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}
