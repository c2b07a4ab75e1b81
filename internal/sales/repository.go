package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/docstore"
)

// Repository persists sales per owner.
type Repository interface {
	ListSales(ctx context.Context, owner string) ([]billing.Sale, error)
	GetSale(ctx context.Context, owner, id string) (billing.Sale, error)
	// CreateSale stores a new sale and applies the stock adjustments
	// atomically.
	CreateSale(ctx context.Context, owner string, sale billing.Sale, adjustments []StockAdjustment) error
	SaveSale(ctx context.Context, owner string, sale billing.Sale) error
	DeleteSale(ctx context.Context, owner, id string) error
}

// DocRepository stores sales in the document store.
type DocRepository struct {
	store *docstore.Store
	sales docstore.Typed[billing.Sale]
}

// NewRepository builds a document-backed repository. Sales are read back
// with their timestamps in loc.
func NewRepository(store *docstore.Store, loc *time.Location) *DocRepository {
	return &DocRepository{
		store: store,
		sales: docstore.NewTyped(store, docstore.Sales, billing.DecodeSaleIn(loc)),
	}
}

func (r *DocRepository) ListSales(ctx context.Context, owner string) ([]billing.Sale, error) {
	return r.sales.List(ctx, owner)
}

func (r *DocRepository) GetSale(ctx context.Context, owner, id string) (billing.Sale, error) {
	return r.sales.Get(ctx, owner, id)
}

func (r *DocRepository) CreateSale(ctx context.Context, owner string, sale billing.Sale, adjustments []StockAdjustment) error {
	return r.store.WithTx(ctx, func(tx *docstore.Store) error {
		if err := r.sales.On(tx).Insert(ctx, owner, sale.ID, sale); err != nil {
			return err
		}
		for _, adj := range adjustments {
			if err := tx.AddToNumber(ctx, owner, docstore.Products, adj.ProductID, "stock", float64(adj.Delta)); err != nil {
				return fmt.Errorf("adjust stock of %s: %w", adj.ProductID, err)
			}
		}
		return nil
	})
}

func (r *DocRepository) SaveSale(ctx context.Context, owner string, sale billing.Sale) error {
	return r.sales.Replace(ctx, owner, sale.ID, sale)
}

func (r *DocRepository) DeleteSale(ctx context.Context, owner, id string) error {
	return r.sales.Delete(ctx, owner, id)
}
