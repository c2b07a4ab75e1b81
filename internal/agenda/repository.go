package agenda

import (
	"context"

	"github.com/bizledger/bizledger/internal/docstore"
)

// Repository persists appointments per owner.
type Repository interface {
	List(ctx context.Context, owner string) ([]Appointment, error)
	Get(ctx context.Context, owner, id string) (Appointment, error)
	Insert(ctx context.Context, owner string, a Appointment) error
	Save(ctx context.Context, owner string, a Appointment) error
	SetStatus(ctx context.Context, owner, id string, status Status) error
	Delete(ctx context.Context, owner, id string) error
}

// DocRepository stores appointments in the document store.
type DocRepository struct {
	docs docstore.Typed[Appointment]
}

// NewRepository builds a document-backed repository.
func NewRepository(store *docstore.Store) *DocRepository {
	return &DocRepository{docs: docstore.NewTyped[Appointment](store, docstore.Appointments, nil)}
}

func (r *DocRepository) List(ctx context.Context, owner string) ([]Appointment, error) {
	return r.docs.List(ctx, owner)
}

func (r *DocRepository) Get(ctx context.Context, owner, id string) (Appointment, error) {
	return r.docs.Get(ctx, owner, id)
}

func (r *DocRepository) Insert(ctx context.Context, owner string, a Appointment) error {
	return r.docs.Insert(ctx, owner, a.ID, a)
}

func (r *DocRepository) Save(ctx context.Context, owner string, a Appointment) error {
	return r.docs.Replace(ctx, owner, a.ID, a)
}

// SetStatus merges the status into the stored document.
func (r *DocRepository) SetStatus(ctx context.Context, owner, id string, status Status) error {
	return r.docs.Merge(ctx, owner, id, map[string]Status{"status": status})
}

func (r *DocRepository) Delete(ctx context.Context, owner, id string) error {
	return r.docs.Delete(ctx, owner, id)
}
