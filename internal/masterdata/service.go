package masterdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Invalidator drops cached per-owner snapshots after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, owner string) error
}

// Service exposes master data operations.
type Service struct {
	repo        Repository
	validate    *validator.Validate
	invalidator Invalidator
	logger      *slog.Logger
	clock       func() time.Time
	newID       func() string
}

// NewService constructs the master data service. invalidator may be nil.
func NewService(repo Repository, validate *validator.Validate, invalidator Invalidator, logger *slog.Logger) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		validate:    validate,
		invalidator: invalidator,
		logger:      logger,
		clock:       time.Now,
		newID:       uuid.NewString,
	}
}

// ListProducts returns the owner's products sorted by name.
func (s *Service) ListProducts(ctx context.Context, owner string, filter ProductFilter) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if filter.match(p) {
			out = append(out, p)
		}
	}
	sortByName(out, func(p Product) string { return p.Name })
	return out, nil
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, owner, id string) (Product, error) {
	p, err := s.repo.GetProduct(ctx, owner, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// CreateProduct registers a product; its initial stock is the given stock.
func (s *Service) CreateProduct(ctx context.Context, owner string, in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := httpx.Validate(s.validate, in); err != nil {
		return Product{}, err
	}
	p := Product{
		ID:           s.newID(),
		Name:         in.Name,
		Category:     in.Category,
		Cost:         in.Cost,
		Price:        in.Price,
		Stock:        in.Stock,
		InitialStock: in.Stock,
		CreatedAt:    s.clock(),
	}
	if err := s.repo.InsertProduct(ctx, owner, p); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, owner)
	return p, nil
}

// UpdateProduct applies a partial update.
func (s *Service) UpdateProduct(ctx context.Context, owner, id string, patch ProductPatch) (Product, error) {
	if err := httpx.Validate(s.validate, patch); err != nil {
		return Product{}, err
	}
	p, err := s.GetProduct(ctx, owner, id)
	if err != nil {
		return Product{}, err
	}
	patch.apply(&p)
	if err := s.repo.SaveProduct(ctx, owner, p); err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	s.invalidate(ctx, owner)
	return p, nil
}

// DeleteProduct removes a product. Past sales keep their item snapshots.
func (s *Service) DeleteProduct(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteProduct(ctx, owner, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.invalidate(ctx, owner)
	return nil
}

// ListCustomers returns customers matching search on name or phone.
func (s *Service) ListCustomers(ctx context.Context, owner, search string) ([]Customer, error) {
	customers, err := s.repo.ListCustomers(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Phone, q) {
			out = append(out, c)
		}
	}
	sortByName(out, func(c Customer) string { return c.Name })
	return out, nil
}

// GetCustomer loads one customer.
func (s *Service) GetCustomer(ctx context.Context, owner, id string) (Customer, error) {
	c, err := s.repo.GetCustomer(ctx, owner, id)
	if err != nil {
		return Customer{}, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

// CreateCustomer registers a customer.
func (s *Service) CreateCustomer(ctx context.Context, owner string, in CustomerInput) (Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validate(s.validate, in); err != nil {
		return Customer{}, err
	}
	c := Customer{
		ID:        s.newID(),
		Name:      in.Name,
		Phone:     strings.TrimSpace(in.Phone),
		ZipCode:   in.ZipCode,
		Address:   in.Address,
		Number:    in.Number,
		City:      in.City,
		State:     strings.ToUpper(in.State),
		Notes:     in.Notes,
		CreatedAt: s.clock(),
	}
	if err := s.repo.InsertCustomer(ctx, owner, c); err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// UpdateCustomer applies a partial update. Sales keep the name they were
// recorded with.
func (s *Service) UpdateCustomer(ctx context.Context, owner, id string, patch CustomerPatch) (Customer, error) {
	if err := httpx.Validate(s.validate, patch); err != nil {
		return Customer{}, err
	}
	c, err := s.GetCustomer(ctx, owner, id)
	if err != nil {
		return Customer{}, err
	}
	patch.apply(&c)
	if err := s.repo.SaveCustomer(ctx, owner, c); err != nil {
		return Customer{}, fmt.Errorf("update customer %s: %w", id, err)
	}
	return c, nil
}

// DeleteCustomer removes a customer.
func (s *Service) DeleteCustomer(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteCustomer(ctx, owner, id); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, owner string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, owner); err != nil {
		s.logger.Warn("snapshot invalidate failed", slog.String("owner", owner), slog.Any("error", err))
	}
}
