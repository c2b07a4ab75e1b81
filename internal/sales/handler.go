package sales

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/platform/httpx"
	"github.com/bizledger/bizledger/internal/shared"
)

// Handler manages sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.createSale)
		r.Get("/summary", h.summary)
		r.Get("/{id}", h.showSale)
		r.Patch("/{id}", h.updateSale)
		r.Delete("/{id}", h.deleteSale)
		r.Get("/{id}/schedule", h.schedule)
		r.Post("/{id}/toggle", h.toggleStatus)
		r.Post("/{id}/pay-next", h.payNext)
		r.Post("/{id}/parcels/{parcelID}/pay", h.payParcel)
	})
	r.Post("/billing/plan", h.previewPlan)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	filter := ListFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Tab:    Tab(strings.ToUpper(r.URL.Query().Get("tab"))),
	}
	switch filter.Tab {
	case "", TabAll, TabPending, TabOverdue, TabPaid:
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown tab "+string(filter.Tab))
		return
	}
	views, err := h.service.ListSales(r.Context(), owner, filter)
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.Paginate(views, shared.PaginationFromRequest(r, len(views))))
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.AddSale(r.Context(), owner, req)
	if err != nil {
		h.fail(w, "create sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) showSale(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	view, err := h.service.View(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "show sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	var req UpdateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.UpdateSale(r.Context(), owner, chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	if err := h.service.DeleteSale(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	sum, err := h.service.Summary(r.Context(), owner)
	if err != nil {
		h.fail(w, "sales summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	lines, err := h.service.Schedule(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "sale schedule", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	sale, err := h.service.ToggleStatus(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "toggle sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) payNext(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	sale, err := h.service.PayNextInstallment(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "pay next installment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) payParcel(w http.ResponseWriter, r *http.Request) {
	owner, _ := shared.OwnerFromContext(r.Context())
	sale, err := h.service.PayParcel(r.Context(), owner, chi.URLParam(r, "id"), chi.URLParam(r, "parcelID"))
	if err != nil {
		h.fail(w, "pay parcel", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) previewPlan(w http.ResponseWriter, r *http.Request) {
	var in billing.PlanInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.PreviewPlan(in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, plan)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
