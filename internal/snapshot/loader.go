// Package snapshot loads the full per-owner data set the dashboard and the
// receivables jobs work on, behind a versioned Redis cache. Only raw records
// are cached; every derived figure is recomputed by the caller.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/docstore"
	"github.com/bizledger/bizledger/internal/masterdata"
)

// Snapshot is everything an owner has recorded.
type Snapshot struct {
	Owner    string               `json:"owner"`
	Sales    []billing.Sale       `json:"sales"`
	Products []masterdata.Product `json:"products"`
	LoadedAt time.Time            `json:"loadedAt"`
}

// Categories maps product id to the product's current category.
func (s Snapshot) Categories() map[string]string {
	return masterdata.CategoryIndex(s.Products)
}

// Source reads raw records from storage.
type Source interface {
	Sales(ctx context.Context, owner string) ([]billing.Sale, error)
	Products(ctx context.Context, owner string) ([]masterdata.Product, error)
}

// DocSource reads from the document store.
type DocSource struct {
	sales    docstore.Typed[billing.Sale]
	products docstore.Typed[masterdata.Product]
}

// NewDocSource builds a Source over the document store, reading sale
// timestamps in loc.
func NewDocSource(store *docstore.Store, loc *time.Location) *DocSource {
	return &DocSource{
		sales:    docstore.NewTyped(store, docstore.Sales, billing.DecodeSaleIn(loc)),
		products: docstore.NewTyped[masterdata.Product](store, docstore.Products, nil),
	}
}

func (d *DocSource) Sales(ctx context.Context, owner string) ([]billing.Sale, error) {
	return d.sales.List(ctx, owner)
}

func (d *DocSource) Products(ctx context.Context, owner string) ([]masterdata.Product, error) {
	return d.products.List(ctx, owner)
}

type memoEntry struct {
	snap    Snapshot
	expires time.Time
}

// Loader serves snapshots through an in-process memo, then Redis, then the
// source. Concurrent loads of the same owner share one source read.
type Loader struct {
	source Source
	cache  *Cache
	logger *slog.Logger
	ttl    time.Duration
	loc    *time.Location
	clock  func() time.Time
	group  singleflight.Group

	mu   sync.Mutex
	memo map[string]memoEntry
	gen  map[string]uint64
}

// NewLoader builds a Loader. cache may be nil. Sales served from the cache
// are moved back into loc when it is set.
func NewLoader(source Source, cache *Cache, ttl time.Duration, loc *time.Location, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source: source,
		cache:  cache,
		logger: logger,
		ttl:    ttl,
		loc:    loc,
		clock:  time.Now,
		memo:   map[string]memoEntry{},
		gen:    map[string]uint64{},
	}
}

// Load returns the owner's snapshot. The returned slices are shared with
// other callers and must not be modified.
func (l *Loader) Load(ctx context.Context, owner string) (Snapshot, error) {
	snap, gen, ok := l.fromMemo(owner)
	if ok {
		return snap, nil
	}
	ch := l.group.DoChan(owner, func() (any, error) {
		return l.loadCached(context.WithoutCancel(ctx), owner)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		snap := res.Val.(Snapshot)
		l.remember(owner, snap, gen)
		return snap, nil
	}
}

func (l *Loader) loadCached(ctx context.Context, owner string) (Snapshot, error) {
	key, err := l.cache.BuildKey(ctx, owner, "full")
	if err != nil {
		l.logger.Warn("snapshot cache unavailable", slog.String("owner", owner), slog.Any("error", err))
		return l.loadSource(ctx, owner)
	}
	var snap Snapshot
	err = l.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
		return l.loadSource(ctx, owner)
	})
	if err != nil {
		l.logger.Warn("snapshot cache fetch failed", slog.String("owner", owner), slog.Any("error", err))
		return l.loadSource(ctx, owner)
	}
	snap.Sales = billing.SalesIn(snap.Sales, l.loc)
	return snap, nil
}

func (l *Loader) loadSource(ctx context.Context, owner string) (Snapshot, error) {
	snap := Snapshot{Owner: owner, LoadedAt: l.clock()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := l.source.Sales(gctx, owner)
		if err != nil {
			return fmt.Errorf("load sales: %w", err)
		}
		snap.Sales = sales
		return nil
	})
	g.Go(func() error {
		products, err := l.source.Products(gctx, owner)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		snap.Products = products
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", owner, err)
	}
	return snap, nil
}

// Invalidate drops the owner's cached snapshot here and in Redis.
func (l *Loader) Invalidate(ctx context.Context, owner string) error {
	l.Forget(owner)
	return l.cache.Bump(ctx, owner)
}

// Forget drops the in-process memo for owner. Loads already in flight are
// not memoised.
func (l *Loader) Forget(owner string) {
	l.mu.Lock()
	delete(l.memo, owner)
	l.gen[owner]++
	l.mu.Unlock()
	l.group.Forget(owner)
}

// Watch evicts memo entries when another process bumps an owner.
func (l *Loader) Watch(ctx context.Context) error {
	return l.cache.ListenForInvalidation(ctx, l.Forget)
}

func (l *Loader) fromMemo(owner string) (Snapshot, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gen := l.gen[owner]
	entry, ok := l.memo[owner]
	if !ok || l.ttl <= 0 || l.clock().After(entry.expires) {
		return Snapshot{}, gen, false
	}
	return entry.snap, gen, true
}

func (l *Loader) remember(owner string, snap Snapshot, gen uint64) {
	if l.ttl <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen[owner] != gen {
		return
	}
	l.memo[owner] = memoEntry{snap: snap, expires: l.clock().Add(l.ttl)}
}
