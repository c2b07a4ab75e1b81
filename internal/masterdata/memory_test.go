package masterdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/bizledger/bizledger/internal/docstore"
)

type memoryRepo struct {
	mu        sync.Mutex
	products  map[string]Product
	customers map[string]Customer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: map[string]Product{}, customers: map[string]Customer{}}
}

func key(owner, id string) string { return owner + "/" + id }

func (m *memoryRepo) ListProducts(_ context.Context, owner string) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for k, p := range m.products {
		if k == key(owner, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetProduct(_ context.Context, owner, id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[key(owner, id)]
	if !ok {
		return Product{}, fmt.Errorf("products/%s: %w", id, docstore.ErrNotFound)
	}
	return p, nil
}

func (m *memoryRepo) InsertProduct(_ context.Context, owner string, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[key(owner, p.ID)]; ok {
		return docstore.ErrDuplicate
	}
	m.products[key(owner, p.ID)] = p
	return nil
}

func (m *memoryRepo) SaveProduct(_ context.Context, owner string, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[key(owner, p.ID)] = p
	return nil
}

func (m *memoryRepo) DeleteProduct(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[key(owner, id)]; !ok {
		return docstore.ErrNotFound
	}
	delete(m.products, key(owner, id))
	return nil
}

func (m *memoryRepo) ListCustomers(_ context.Context, owner string) ([]Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Customer
	for k, c := range m.customers {
		if k == key(owner, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryRepo) GetCustomer(_ context.Context, owner, id string) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[key(owner, id)]
	if !ok {
		return Customer{}, docstore.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) InsertCustomer(_ context.Context, owner string, c Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[key(owner, c.ID)] = c
	return nil
}

func (m *memoryRepo) SaveCustomer(_ context.Context, owner string, c Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[key(owner, c.ID)] = c
	return nil
}

func (m *memoryRepo) DeleteCustomer(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[key(owner, id)]; !ok {
		return docstore.ErrNotFound
	}
	delete(m.customers, key(owner, id))
	return nil
}

type countingInvalidator struct {
	mu     sync.Mutex
	owners []string
}

func (c *countingInvalidator) Invalidate(_ context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners = append(c.owners, owner)
	return nil
}
