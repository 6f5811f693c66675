package genius

import (
	"context"
	"sync"
)

// Querier is the feed access the bridge needs.
type Querier interface {
	QueryPage(ctx context.Context, query string, page int) ([]Item, error)
}

// Bridge accumulates feed pages for the UI. It tracks the current query and
// page, deduplicates cards across pages by id, and resets pagination whenever
// the query changes. Safe for use from multiple goroutines.
type Bridge struct {
	mu     sync.Mutex
	client Querier

	query string
	page  int
	items []Item
	seen  map[string]struct{}
}

// NewBridge constructs a bridge over the given feed client.
func NewBridge(client Querier) *Bridge {
	return &Bridge{
		client: client,
		seen:   map[string]struct{}{},
	}
}

// Query fetches the first page for a query. A repeated identical query
// refreshes page 1 without discarding accumulated items; a new query resets
// pagination and starts over.
func (b *Bridge) Query(ctx context.Context, query string) ([]Item, error) {
	b.mu.Lock()
	if query != b.query {
		b.query = query
		b.page = 0
		b.items = nil
		b.seen = map[string]struct{}{}
	}
	b.mu.Unlock()
	return b.fetchPage(ctx, 1)
}

// LoadNextPage fetches the page after the last fetched one for the current
// query. Calling it before any query fetches page 1 of the empty query.
func (b *Bridge) LoadNextPage(ctx context.Context) ([]Item, error) {
	b.mu.Lock()
	next := b.page + 1
	b.mu.Unlock()
	return b.fetchPage(ctx, next)
}

func (b *Bridge) fetchPage(ctx context.Context, page int) ([]Item, error) {
	b.mu.Lock()
	query := b.query
	b.mu.Unlock()

	// The network call runs unlocked so a slow page cannot block readers.
	fetched, err := b.client.QueryPage(ctx, query, page)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if query != b.query {
		// Query changed while fetching; drop the stale page.
		return b.snapshotLocked(), nil
	}
	if page > b.page {
		b.page = page
	}
	for _, item := range fetched {
		if _, dup := b.seen[item.ID]; dup {
			continue
		}
		b.seen[item.ID] = struct{}{}
		b.items = append(b.items, item)
	}
	return b.snapshotLocked(), nil
}

// Items returns all accumulated cards in arrival order.
func (b *Bridge) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// CurrentQuery returns the active query string.
func (b *Bridge) CurrentQuery() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Page returns the highest fetched page, 0 before any fetch.
func (b *Bridge) Page() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

func (b *Bridge) snapshotLocked() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}
