package docstore

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/internal/platform/db"
)

// Runs against a real database when BIZLEDGER_TEST_PG_DSN is set.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("BIZLEDGER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BIZLEDGER_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := New(pool)
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = store.q.Exec(context.Background(), `DELETE FROM documents WHERE owner_id = $1`, owner)
	})

	require.NoError(t, store.Insert(ctx, owner, Products, "p1", map[string]any{"name": "Shampoo", "stock": 10}))
	require.ErrorIs(t, store.Insert(ctx, owner, Products, "p1", map[string]any{}), ErrDuplicate)

	require.NoError(t, store.Put(ctx, owner, Products, "p1", map[string]any{"category": "Hair"}))
	require.NoError(t, store.AddToNumber(ctx, owner, Products, "p1", "stock", -3))

	body, err := store.Get(ctx, owner, Products, "p1")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "Shampoo", got["name"])
	require.Equal(t, "Hair", got["category"])
	require.EqualValues(t, 7, got["stock"])

	docs, err := store.List(ctx, owner, Products)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	owners, err := store.ListOwners(ctx)
	require.NoError(t, err)
	require.Contains(t, owners, owner)

	require.NoError(t, store.Delete(ctx, owner, Products, "p1"))
	_, err = store.Get(ctx, owner, Products, "p1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, owner, Products, "p1"), ErrNotFound)
}

func TestStoreWithTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := "test-" + uuid.NewString()

	err := store.WithTx(ctx, func(tx *Store) error {
		require.NoError(t, tx.Insert(ctx, owner, Sales, "s1", map[string]any{"id": "s1"}))
		return tx.AddToNumber(ctx, owner, Products, "missing", "stock", -1)
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, owner, Sales, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}
