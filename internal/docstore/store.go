// Package docstore persists per-owner collections of JSON documents in a
// single PostgreSQL table. Writes merge into the stored document, so partial
// updates leave untouched fields alone.
package docstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bizledger/bizledger/internal/platform/db"
	"github.com/bizledger/bizledger/internal/platform/httpx"
)

//go:embed schema.sql
var schemaSQL string

// Collection names a per-owner document collection.
type Collection string

const (
	Sales        Collection = "sales"
	Products     Collection = "products"
	Customers    Collection = "customers"
	Appointments Collection = "appointments"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = fmt.Errorf("docstore: document %w", httpx.ErrNotFound)
	// ErrDuplicate is returned when Insert hits an existing id.
	ErrDuplicate = fmt.Errorf("docstore: document exists: %w", httpx.ErrConflict)
)

// Document is one stored record.
type Document struct {
	Owner      string
	Collection Collection
	ID         string
	Body       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	db.DBTX
	db.TxBeginner
}

// Store reads and writes documents. A Store obtained inside WithTx runs every
// call on that transaction.
type Store struct {
	pool Pool
	q    db.DBTX
}

// New builds a store on top of the pool.
func New(pool Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Migrate creates the documents table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// WithTx runs fn with a store bound to a single transaction.
func (s *Store) WithTx(ctx context.Context, fn func(*Store) error) error {
	if _, ok := s.q.(pgx.Tx); ok {
		return fn(s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx})
	})
}

// Get loads a single document body.
func (s *Store) Get(ctx context.Context, owner string, coll Collection, id string) (json.RawMessage, error) {
	const query = `SELECT body FROM documents WHERE owner_id = $1 AND collection = $2 AND id = $3`
	var body []byte
	if err := s.q.QueryRow(ctx, query, owner, string(coll), id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", coll, id, ErrNotFound)
		}
		return nil, fmt.Errorf("docstore: get %s/%s: %w", coll, id, err)
	}
	return body, nil
}

// List returns every document of a collection, most recently updated first.
func (s *Store) List(ctx context.Context, owner string, coll Collection) ([]Document, error) {
	const query = `SELECT id, body, created_at, updated_at FROM documents
		WHERE owner_id = $1 AND collection = $2
		ORDER BY updated_at DESC, id`
	rows, err := s.q.Query(ctx, query, owner, string(coll))
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", coll, err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		doc := Document{Owner: owner, Collection: coll}
		var body []byte
		if err := row.Scan(&doc.ID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return Document{}, err
		}
		doc.Body = body
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", coll, err)
	}
	return docs, nil
}

// Insert stores a new document and fails with ErrDuplicate when the id is
// already taken.
func (s *Store) Insert(ctx context.Context, owner string, coll Collection, id string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", coll, id, err)
	}
	const query = `INSERT INTO documents (owner_id, collection, id, body) VALUES ($1, $2, $3, $4::jsonb)`
	if _, err := s.q.Exec(ctx, query, owner, string(coll), id, body); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s/%s: %w", coll, id, ErrDuplicate)
		}
		return fmt.Errorf("docstore: insert %s/%s: %w", coll, id, err)
	}
	return nil
}

// Put merges value into the stored document, creating it when missing.
// Top-level keys present in value overwrite the stored ones.
func (s *Store) Put(ctx context.Context, owner string, coll Collection, id string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", coll, id, err)
	}
	const query = `INSERT INTO documents (owner_id, collection, id, body)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (owner_id, collection, id)
		DO UPDATE SET body = documents.body || EXCLUDED.body, updated_at = now()`
	if _, err := s.q.Exec(ctx, query, owner, string(coll), id, body); err != nil {
		return fmt.Errorf("docstore: put %s/%s: %w", coll, id, err)
	}
	return nil
}

// Replace overwrites the stored document entirely.
func (s *Store) Replace(ctx context.Context, owner string, coll Collection, id string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", coll, id, err)
	}
	const query = `INSERT INTO documents (owner_id, collection, id, body)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (owner_id, collection, id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
	if _, err := s.q.Exec(ctx, query, owner, string(coll), id, body); err != nil {
		return fmt.Errorf("docstore: replace %s/%s: %w", coll, id, err)
	}
	return nil
}

// AddToNumber adds delta to a numeric top-level field of an existing document.
func (s *Store) AddToNumber(ctx context.Context, owner string, coll Collection, id, field string, delta float64) error {
	const query = `UPDATE documents
		SET body = jsonb_set(body, ARRAY[$4::text], to_jsonb(COALESCE((body->>$4)::numeric, 0) + $5::numeric)),
		    updated_at = now()
		WHERE owner_id = $1 AND collection = $2 AND id = $3`
	tag, err := s.q.Exec(ctx, query, owner, string(coll), id, field, delta)
	if err != nil {
		return fmt.Errorf("docstore: adjust %s/%s.%s: %w", coll, id, field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", coll, id, ErrNotFound)
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, owner string, coll Collection, id string) error {
	const query = `DELETE FROM documents WHERE owner_id = $1 AND collection = $2 AND id = $3`
	tag, err := s.q.Exec(ctx, query, owner, string(coll), id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", coll, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", coll, id, ErrNotFound)
	}
	return nil
}

// ListOwners returns every owner holding at least one document.
func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, `SELECT DISTINCT owner_id FROM documents ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("docstore: list owners: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("docstore: list owners: %w", err)
	}
	return owners, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
