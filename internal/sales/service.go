package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/masterdata"
	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Catalog resolves the products and customers a sale refers to.
type Catalog interface {
	GetProduct(ctx context.Context, owner, id string) (masterdata.Product, error)
	GetCustomer(ctx context.Context, owner, id string) (masterdata.Customer, error)
}

// Invalidator drops cached per-owner snapshots after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, owner string) error
}

// Service provides business logic for sales operations.
type Service struct {
	repo        Repository
	catalog     Catalog
	validate    *validator.Validate
	invalidator Invalidator
	logger      *slog.Logger
	location    *time.Location
	clock       func() time.Time
	newID       func() string
}

// Options configures optional collaborators.
type Options struct {
	Validate    *validator.Validate
	Invalidator Invalidator
	Logger      *slog.Logger
	Location    *time.Location
	Clock       func() time.Time
}

// NewService constructs a sales service.
func NewService(repo Repository, catalog Catalog, opts Options) *Service {
	s := &Service{
		repo:        repo,
		catalog:     catalog,
		validate:    opts.Validate,
		invalidator: opts.Invalidator,
		logger:      opts.Logger,
		location:    opts.Location,
		clock:       opts.Clock,
		newID:       uuid.NewString,
	}
	if s.validate == nil {
		s.validate = validator.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.location)
}

// ============================================================================
// RECORDING
// ============================================================================

// AddSale validates and records a sale or commission. SALE items snapshot the
// product's current name, cost and price, and decrement its stock.
func (s *Service) AddSale(ctx context.Context, owner string, req CreateSaleRequest) (billing.Sale, error) {
	if err := httpx.Validate(s.validate, req); err != nil {
		return billing.Sale{}, err
	}
	now := s.now()
	kind := req.kind()

	sale := billing.Sale{
		ID:            s.newID(),
		Type:          kind,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		IsRecurring:   req.IsRecurring,
		Date:          now,
	}

	var adjustments []StockAdjustment
	switch kind {
	case billing.SaleTypeCommission:
		desc := strings.TrimSpace(req.Description)
		var fields []httpx.FieldError
		if desc == "" {
			fields = append(fields, httpx.FieldError{Field: "CreateSaleRequest.Description", Rule: "required"})
		}
		if req.CommissionValue <= 0 {
			fields = append(fields, httpx.FieldError{Field: "CreateSaleRequest.CommissionValue", Rule: "gt"})
		}
		if len(fields) > 0 {
			return billing.Sale{}, &httpx.InvalidFields{Fields: fields}
		}
		sale.Items = []billing.SaleItem{billing.NewCommissionItem(desc, req.CommissionValue)}
		sale.CustomerName = desc
	default:
		if len(req.Items) == 0 {
			return billing.Sale{}, &httpx.InvalidFields{Fields: []httpx.FieldError{{Field: "CreateSaleRequest.Items", Rule: "required"}}}
		}
		for _, it := range req.Items {
			product, err := s.catalog.GetProduct(ctx, owner, it.ProductID)
			if err != nil {
				return billing.Sale{}, s.unknownRef("product", it.ProductID, err)
			}
			sale.Items = append(sale.Items, billing.NewSaleItem(product.ID, product.Name, it.Quantity, product.Cost, product.Price))
			adjustments = append(adjustments, StockAdjustment{ProductID: product.ID, Delta: -it.Quantity})
		}
		sale.CustomerName = WalkInCustomer
	}

	if req.CustomerID != "" {
		customer, err := s.catalog.GetCustomer(ctx, owner, req.CustomerID)
		if err != nil {
			return billing.Sale{}, s.unknownRef("customer", req.CustomerID, err)
		}
		sale.CustomerName = customer.Name
	}

	billing.TotalsFor(kind, sale.Items, req.CommissionValue).Apply(&sale)

	due, err := s.resolveDue(req.DueDate, req.DueDay)
	if err != nil {
		return billing.Sale{}, err
	}
	sale.DueDate = due

	sale.DownPayment = billing.ClampDownPayment(req.DownPayment, sale.TotalPrice)
	sale.Installments = max(req.Installments, 1)
	sale.Status = req.Status
	if sale.Status == "" {
		sale.Status = billing.StatusPending
	}
	if sale.DownPayment >= sale.TotalPrice {
		sale.Status = billing.StatusPaid
		sale.Installments = 1
	}
	if sale.IsPaid() {
		sale.PaidInstallments = sale.Installments
	}

	switch {
	case len(req.CustomInstallments) > 0:
		sale.CustomInstallments = s.parcelsFrom(req.CustomInstallments, now)
	case req.GenerateParcels && sale.DueDate != nil && !sale.IsPaid():
		plan, err := billing.BuildInstallmentPlan(billing.PlanInput{
			TotalPrice:   sale.TotalPrice,
			DownPayment:  sale.DownPayment,
			Installments: sale.Installments,
			Anchor:       *sale.DueDate,
		})
		if err != nil {
			return billing.Sale{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		sale.CustomInstallments = billing.ExplicitFromPlan(plan, s.newID)
	}
	sale = billing.Normalize(sale)

	if kind != billing.SaleTypeSale {
		adjustments = nil
	}
	if err := s.repo.CreateSale(ctx, owner, sale, adjustments); err != nil {
		return billing.Sale{}, fmt.Errorf("create sale: %w", err)
	}
	s.invalidate(ctx, owner)
	s.logger.Info("sale recorded",
		slog.String("owner", owner),
		slog.String("sale_id", sale.ID),
		slog.String("type", string(sale.Type)),
		slog.Float64("total", sale.TotalPrice),
		slog.String("status", string(sale.Status)),
	)
	return sale, nil
}

// UpdateSale applies a partial edit.
func (s *Service) UpdateSale(ctx context.Context, owner, id string, req UpdateSaleRequest) (billing.Sale, error) {
	if err := httpx.Validate(s.validate, req); err != nil {
		return billing.Sale{}, err
	}
	sale, err := s.GetSale(ctx, owner, id)
	if err != nil {
		return billing.Sale{}, err
	}
	if req.CustomerID != nil {
		sale.CustomerID = *req.CustomerID
		switch {
		case sale.CustomerID != "":
			customer, err := s.catalog.GetCustomer(ctx, owner, sale.CustomerID)
			if err != nil {
				return billing.Sale{}, s.unknownRef("customer", sale.CustomerID, err)
			}
			sale.CustomerName = customer.Name
		case sale.IsCommission() && len(sale.Items) > 0:
			sale.CustomerName = sale.Items[0].ProductName
		default:
			sale.CustomerName = WalkInCustomer
		}
	}
	if req.PaymentMethod != nil {
		sale.PaymentMethod = *req.PaymentMethod
	}
	if req.IsRecurring != nil {
		sale.IsRecurring = *req.IsRecurring
	}
	var day string
	if req.DueDay != nil {
		day = *req.DueDay
	}
	if req.DueDate != nil || day != "" {
		due, err := s.resolveDue(req.DueDate, day)
		if err != nil {
			return billing.Sale{}, err
		}
		sale.DueDate = due
	}
	if req.CustomInstallments != nil {
		// An empty list would drop the parcels and leave stale counters behind.
		if len(*req.CustomInstallments) == 0 {
			return billing.Sale{}, &httpx.InvalidFields{Fields: []httpx.FieldError{{Field: "customInstallments", Rule: "min"}}}
		}
		for _, p := range *req.CustomInstallments {
			if err := httpx.Validate(s.validate, p); err != nil {
				return billing.Sale{}, err
			}
		}
		sale.CustomInstallments = s.parcelsFrom(*req.CustomInstallments, s.now())
	}
	sale = billing.Normalize(sale)
	return s.save(ctx, owner, sale)
}

// DeleteSale removes a sale. Stock taken by it is not restored.
func (s *Service) DeleteSale(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteSale(ctx, owner, id); err != nil {
		return fmt.Errorf("delete sale %s: %w", id, err)
	}
	s.invalidate(ctx, owner)
	return nil
}

// ============================================================================
// PAYMENTS
// ============================================================================

// ToggleStatus flips a sale between paid and pending.
func (s *Service) ToggleStatus(ctx context.Context, owner, id string) (billing.Sale, error) {
	sale, err := s.GetSale(ctx, owner, id)
	if err != nil {
		return billing.Sale{}, err
	}
	return s.save(ctx, owner, billing.ToggleStatus(sale, s.now()))
}

// PayNextInstallment settles the next open parcel.
func (s *Service) PayNextInstallment(ctx context.Context, owner, id string) (billing.Sale, error) {
	sale, err := s.GetSale(ctx, owner, id)
	if err != nil {
		return billing.Sale{}, err
	}
	if sale.IsPaid() {
		return sale, nil
	}
	return s.save(ctx, owner, billing.PayNextInstallment(sale, s.now()))
}

// PayParcel settles one explicit parcel.
func (s *Service) PayParcel(ctx context.Context, owner, id, parcelID string) (billing.Sale, error) {
	sale, err := s.GetSale(ctx, owner, id)
	if err != nil {
		return billing.Sale{}, err
	}
	updated, err := billing.PayParcel(sale, parcelID, s.now())
	switch {
	case errors.Is(err, billing.ErrParcelNotFound):
		return billing.Sale{}, fmt.Errorf("sale %s parcel %s: %w", id, parcelID, httpx.ErrNotFound)
	case errors.Is(err, billing.ErrNoSchedule):
		return billing.Sale{}, fmt.Errorf("sale %s: %w: %v", id, httpx.ErrConflict, err)
	case err != nil:
		return billing.Sale{}, err
	}
	return s.save(ctx, owner, updated)
}

// ============================================================================
// QUERIES
// ============================================================================

// GetSale loads one sale.
func (s *Service) GetSale(ctx context.Context, owner, id string) (billing.Sale, error) {
	sale, err := s.repo.GetSale(ctx, owner, id)
	if err != nil {
		return billing.Sale{}, fmt.Errorf("get sale %s: %w", id, err)
	}
	return sale, nil
}

// View loads one sale with its due status.
func (s *Service) View(ctx context.Context, owner, id string) (SaleView, error) {
	sale, err := s.GetSale(ctx, owner, id)
	if err != nil {
		return SaleView{}, err
	}
	return viewOf(sale, s.now()), nil
}

// ListSales returns matching sales, newest first.
func (s *Service) ListSales(ctx context.Context, owner string, filter ListFilter) ([]SaleView, error) {
	sales, err := s.repo.ListSales(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	now := s.now()
	out := make([]SaleView, 0, len(sales))
	for _, sale := range sales {
		if filter.matchSearch(sale) && filter.matchTab(sale, now) {
			out = append(out, viewOf(sale, now))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Summary computes the sales page cards.
func (s *Service) Summary(ctx context.Context, owner string) (billing.SalesSummary, error) {
	sales, err := s.repo.ListSales(ctx, owner)
	if err != nil {
		return billing.SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}
	return billing.SummarizeSales(sales, s.now()), nil
}

// Schedule returns the display schedule of one sale.
func (s *Service) Schedule(ctx context.Context, owner, id string) ([]billing.ScheduleLine, error) {
	sale, err := s.GetSale(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return billing.DisplaySchedule(sale, s.now()), nil
}

// PreviewPlan computes a plan without recording anything.
func (s *Service) PreviewPlan(in billing.PlanInput) ([]billing.PlannedInstallment, error) {
	plan, err := billing.BuildInstallmentPlan(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return plan, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Service) save(ctx context.Context, owner string, sale billing.Sale) (billing.Sale, error) {
	if err := s.repo.SaveSale(ctx, owner, sale); err != nil {
		return billing.Sale{}, fmt.Errorf("save sale %s: %w", sale.ID, err)
	}
	s.invalidate(ctx, owner)
	return sale, nil
}

func (s *Service) resolveDue(due *time.Time, day string) (*time.Time, error) {
	if day != "" {
		t, err := EndOfDay(day, s.location)
		if err != nil {
			return nil, fmt.Errorf("%w: due day: %v", httpx.ErrValidation, err)
		}
		return &t, nil
	}
	if due == nil || due.IsZero() {
		return nil, nil
	}
	t := due.In(s.location)
	return &t, nil
}

// parcelsFrom numbers explicit parcels by due date and assigns ids. Paid
// parcels without a payment date are stamped with now.
func (s *Service) parcelsFrom(reqs []ParcelRequest, now time.Time) []billing.Installment {
	sorted := append([]ParcelRequest(nil), reqs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DueDate.Before(sorted[j].DueDate) })
	out := make([]billing.Installment, len(sorted))
	for i, p := range sorted {
		inst := billing.Installment{
			ID:      s.newID(),
			Number:  i + 1,
			DueDate: p.DueDate.In(s.location),
			Value:   billing.RoundCents(p.Value),
			Status:  billing.StatusPending,
		}
		if p.Status == billing.StatusPaid {
			inst.Status = billing.StatusPaid
			paidAt := now
			if p.PaidAt != nil {
				paidAt = p.PaidAt.In(s.location)
			}
			inst.PaidAt = &paidAt
		}
		out[i] = inst
	}
	return out
}

func (s *Service) unknownRef(kind, id string, err error) error {
	if errors.Is(err, httpx.ErrNotFound) {
		return &httpx.InvalidFields{Fields: []httpx.FieldError{{Field: kind + ":" + id, Rule: "exists"}}}
	}
	return fmt.Errorf("resolve %s %s: %w", kind, id, err)
}

func (s *Service) invalidate(ctx context.Context, owner string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, owner); err != nil {
		s.logger.Warn("snapshot invalidate failed", slog.String("owner", owner), slog.Any("error", err))
	}
}
