package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orderdesk/internal/repository"
	"orderdesk/internal/service"
)

type Handler struct {
	router *chi.Mux
	logger *slog.Logger

	authSvc     *service.AuthService
	userSvc     *service.UserService
	clientSvc   *service.ClientService
	productSvc  *service.ProductService
	orderSvc    *service.OrderService
	metricsHTTP http.Handler
}

func New(
	logger *slog.Logger,
	authSvc *service.AuthService,
	userSvc *service.UserService,
	clientSvc *service.ClientService,
	productSvc *service.ProductService,
	orderSvc *service.OrderService,
	metricsHTTP http.Handler,
) *Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(compressBrotli)

	h := &Handler{
		router:      router,
		logger:      logger,
		authSvc:     authSvc,
		userSvc:     userSvc,
		clientSvc:   clientSvc,
		productSvc:  productSvc,
		orderSvc:    orderSvc,
		metricsHTTP: metricsHTTP,
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.router.Get("/health", h.HealthCheck)
	if h.metricsHTTP != nil {
		h.router.Method(http.MethodGet, "/metrics", h.metricsHTTP)
	}

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", h.Login)

		r.With(h.authenticateOptional).Post("/users", h.CreateUser)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/users/me", h.Me)
			r.Get("/users/{id}", h.GetUser)

			r.Route("/clients", func(r chi.Router) {
				r.Post("/", h.CreateClient)
				r.Get("/", h.ListClients)
				r.Get("/{id}", h.GetClient)
				r.Put("/{id}", h.UpdateClient)
				r.Delete("/{id}", h.DeleteClient)
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", h.CreateProduct)
				r.Get("/", h.ListProducts)
				r.Get("/{id}", h.GetProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.CreateOrder)
				r.Get("/", h.ListOrders)
				r.Get("/{id}", h.GetOrder)
				r.Put("/{id}", h.UpdateOrderStatus)
				r.Delete("/{id}", h.DeleteOrder)
			})
		})
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidInput
	}
	return id, nil
}

// parsePage reads and clamps the pagination query parameters.
func parsePage(r *http.Request) repository.Page {
	p := repository.Page{Number: 1, Size: 10}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Number = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		p.Size = v
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

func totalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
