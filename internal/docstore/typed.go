package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Typed is a view of one collection decoding bodies into T.
type Typed[T any] struct {
	store  *Store
	coll   Collection
	decode func([]byte) (T, error)
}

// NewTyped builds a typed view. A nil decode uses encoding/json.
func NewTyped[T any](store *Store, coll Collection, decode func([]byte) (T, error)) Typed[T] {
	if decode == nil {
		decode = func(b []byte) (T, error) {
			var v T
			err := json.Unmarshal(b, &v)
			return v, err
		}
	}
	return Typed[T]{store: store, coll: coll, decode: decode}
}

// On rebinds the view to another store, typically one scoped to a transaction.
func (t Typed[T]) On(store *Store) Typed[T] {
	t.store = store
	return t
}

// Store returns the underlying store.
func (t Typed[T]) Store() *Store {
	return t.store
}

// Get loads and decodes one document.
func (t Typed[T]) Get(ctx context.Context, owner, id string) (T, error) {
	var zero T
	body, err := t.store.Get(ctx, owner, t.coll, id)
	if err != nil {
		return zero, err
	}
	v, err := t.decode(body)
	if err != nil {
		return zero, fmt.Errorf("docstore: decode %s/%s: %w", t.coll, id, err)
	}
	return v, nil
}

// List loads and decodes the whole collection.
func (t Typed[T]) List(ctx context.Context, owner string) ([]T, error) {
	docs, err := t.store.List(ctx, owner, t.coll)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := t.decode(doc.Body)
		if err != nil {
			return nil, fmt.Errorf("docstore: decode %s/%s: %w", t.coll, doc.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Insert stores a new document.
func (t Typed[T]) Insert(ctx context.Context, owner, id string, v T) error {
	return t.store.Insert(ctx, owner, t.coll, id, v)
}

// Replace overwrites a document.
func (t Typed[T]) Replace(ctx context.Context, owner, id string, v T) error {
	return t.store.Replace(ctx, owner, t.coll, id, v)
}

// Merge writes a partial document over the stored one.
func (t Typed[T]) Merge(ctx context.Context, owner, id string, patch any) error {
	return t.store.Put(ctx, owner, t.coll, id, patch)
}

// Delete removes a document.
func (t Typed[T]) Delete(ctx context.Context, owner, id string) error {
	return t.store.Delete(ctx, owner, t.coll, id)
}
