package masterdata

import (
	"context"

	"github.com/bizledger/bizledger/internal/docstore"
)

// Repository persists products and customers per owner.
type Repository interface {
	ListProducts(ctx context.Context, owner string) ([]Product, error)
	GetProduct(ctx context.Context, owner, id string) (Product, error)
	InsertProduct(ctx context.Context, owner string, p Product) error
	SaveProduct(ctx context.Context, owner string, p Product) error
	DeleteProduct(ctx context.Context, owner, id string) error

	ListCustomers(ctx context.Context, owner string) ([]Customer, error)
	GetCustomer(ctx context.Context, owner, id string) (Customer, error)
	InsertCustomer(ctx context.Context, owner string, c Customer) error
	SaveCustomer(ctx context.Context, owner string, c Customer) error
	DeleteCustomer(ctx context.Context, owner, id string) error
}

// DocRepository stores master data in the document store.
type DocRepository struct {
	products  docstore.Typed[Product]
	customers docstore.Typed[Customer]
}

// NewRepository builds a document-backed repository.
func NewRepository(store *docstore.Store) *DocRepository {
	return &DocRepository{
		products:  docstore.NewTyped[Product](store, docstore.Products, nil),
		customers: docstore.NewTyped[Customer](store, docstore.Customers, nil),
	}
}

func (r *DocRepository) ListProducts(ctx context.Context, owner string) ([]Product, error) {
	return r.products.List(ctx, owner)
}

func (r *DocRepository) GetProduct(ctx context.Context, owner, id string) (Product, error) {
	return r.products.Get(ctx, owner, id)
}

func (r *DocRepository) InsertProduct(ctx context.Context, owner string, p Product) error {
	return r.products.Insert(ctx, owner, p.ID, p)
}

func (r *DocRepository) SaveProduct(ctx context.Context, owner string, p Product) error {
	return r.products.Replace(ctx, owner, p.ID, p)
}

func (r *DocRepository) DeleteProduct(ctx context.Context, owner, id string) error {
	return r.products.Delete(ctx, owner, id)
}

func (r *DocRepository) ListCustomers(ctx context.Context, owner string) ([]Customer, error) {
	return r.customers.List(ctx, owner)
}

func (r *DocRepository) GetCustomer(ctx context.Context, owner, id string) (Customer, error) {
	return r.customers.Get(ctx, owner, id)
}

func (r *DocRepository) InsertCustomer(ctx context.Context, owner string, c Customer) error {
	return r.customers.Insert(ctx, owner, c.ID, c)
}

func (r *DocRepository) SaveCustomer(ctx context.Context, owner string, c Customer) error {
	return r.customers.Replace(ctx, owner, c.ID, c)
}

func (r *DocRepository) DeleteCustomer(ctx context.Context, owner, id string) error {
	return r.customers.Delete(ctx, owner, id)
}
