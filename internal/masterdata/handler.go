package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizledger/bizledger/internal/platform/httpx"
	"github.com/bizledger/bizledger/internal/shared"
)

// Handler serves product and customer endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.showProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.showCustomer)
		r.Patch("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
}

type productView struct {
	Product
	LowStock bool `json:"lowStock"`
}

type productList struct {
	shared.Page[productView]
	StockValue float64  `json:"stockValue"`
	Categories []string `json:"categories"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	filter := ProductFilter{
		Search:       r.URL.Query().Get("search"),
		LowStockOnly: r.URL.Query().Get("low_stock") == "true",
	}
	products, err := h.service.ListProducts(r.Context(), owner, filter)
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, LowStock: p.LowStock()}
	}
	httpx.JSON(w, http.StatusOK, productList{
		Page:       shared.Paginate(views, shared.PaginationFromRequest(r, len(views))),
		StockValue: StockValuation(products),
		Categories: Categories(products),
	})
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	p, err := h.service.GetProduct(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "show product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: p, LowStock: p.LowStock()})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), owner, in)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productView{Product: p, LowStock: p.LowStock()})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	var patch ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), owner, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: p, LowStock: p.LowStock()})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	if err := h.service.DeleteProduct(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	customers, err := h.service.ListCustomers(r.Context(), owner, r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, "list customers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.Paginate(customers, shared.PaginationFromRequest(r, len(customers))))
}

func (h *Handler) showCustomer(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	c, err := h.service.GetCustomer(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "show customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	var in CustomerInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateCustomer(r.Context(), owner, in)
	if err != nil {
		h.fail(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	var patch CustomerPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateCustomer(r.Context(), owner, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	if err := h.service.DeleteCustomer(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
