package sales

import (
	"context"
	"fmt"
	"sync"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/docstore"
	"github.com/bizledger/bizledger/internal/masterdata"
)

type memoryRepo struct {
	mu        sync.Mutex
	sales     map[string]billing.Sale
	stock     map[string]int
	createErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sales: map[string]billing.Sale{}, stock: map[string]int{}}
}

func (m *memoryRepo) ListSales(_ context.Context, owner string) ([]billing.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []billing.Sale
	for k, s := range m.sales {
		if k == owner+"/"+s.ID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (m *memoryRepo) GetSale(_ context.Context, owner, id string) (billing.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[owner+"/"+id]
	if !ok {
		return billing.Sale{}, fmt.Errorf("sales/%s: %w", id, docstore.ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *memoryRepo) CreateSale(_ context.Context, owner string, sale billing.Sale, adjustments []StockAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.sales[owner+"/"+sale.ID] = sale.Clone()
	for _, adj := range adjustments {
		m.stock[adj.ProductID] += adj.Delta
	}
	return nil
}

func (m *memoryRepo) SaveSale(_ context.Context, owner string, sale billing.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[owner+"/"+sale.ID] = sale.Clone()
	return nil
}

func (m *memoryRepo) DeleteSale(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[owner+"/"+id]; !ok {
		return docstore.ErrNotFound
	}
	delete(m.sales, owner+"/"+id)
	return nil
}

type fakeCatalog struct {
	products  map[string]masterdata.Product
	customers map[string]masterdata.Customer
}

func (f fakeCatalog) GetProduct(_ context.Context, _ string, id string) (masterdata.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return masterdata.Product{}, docstore.ErrNotFound
	}
	return p, nil
}

func (f fakeCatalog) GetCustomer(_ context.Context, _ string, id string) (masterdata.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return masterdata.Customer{}, docstore.ErrNotFound
	}
	return c, nil
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (r *recordingInvalidator) Invalidate(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}
