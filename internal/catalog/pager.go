package catalog

import (
	"context"
	"errors"
	"sync"

	"omifemcuts/pkg/domain"
)

// PageSize is how many styles one listing page shows and one fetch requests.
const PageSize = 9

var ErrLoadInProgress = errors.New("catalog: load already in progress")

// Page is one fetch from the backing catalog in newest-first order.
// NextCursor is empty when the caller should not ask for more.
type Page struct {
	Items      []domain.Style
	NextCursor string
}

// Fetcher reads newest-first pages after an opaque cursor ("" for the first page).
type Fetcher interface {
	FetchStyles(ctx context.Context, cursor string, limit int) (Page, error)
}

// Pager keeps the listing state of the catalog screen: the styles fetched so
// far, the cursor after the last of them, the active filter and sort, and how
// many matching styles are displayed. At most one fetch runs at a time.
type Pager struct {
	fetcher  Fetcher
	pageSize int

	mu        sync.Mutex
	loaded    []domain.Style
	seen      map[string]struct{}
	cursor    string
	exhausted bool
	loading   bool
	filter    Filter
	sort      Sort
	shown     int
}

func NewPager(fetcher Fetcher) *Pager {
	return &Pager{
		fetcher:  fetcher,
		pageSize: PageSize,
		seen:     make(map[string]struct{}),
		sort:     SortNewest,
	}
}

// LoadInitial discards local state and fetches the first page. Under an order
// other than newest it goes on to fetch the rest of the catalog.
func (p *Pager) LoadInitial(ctx context.Context) error {
	if !p.begin() {
		return ErrLoadInProgress
	}
	defer p.end()
	page, err := p.fetcher.FetchStyles(ctx, "", p.pageSize)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.loaded = nil
	p.seen = make(map[string]struct{})
	p.cursor = ""
	p.exhausted = false
	p.appendLocked(page)
	p.shown = p.pageSize
	ranked := p.sort != SortNewest
	p.mu.Unlock()

	if ranked {
		return p.drain(ctx)
	}
	return nil
}

// SetFilter changes the filter and resets the window to the first page.
func (p *Pager) SetFilter(f Filter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
	p.shown = p.pageSize
}

// SetSort changes the order and resets the window to the first page. Orders
// other than newest rank the whole catalog, so the remaining pages are fetched
// before the order takes effect. On a fetch error the previous order is kept.
func (p *Pager) SetSort(ctx context.Context, by Sort) error {
	if by != SortNewest {
		if !p.begin() {
			return ErrLoadInProgress
		}
		err := p.drain(ctx)
		p.end()
		if err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort = by
	p.shown = p.pageSize
	return nil
}

// ClearFilters drops category and query filters. Sort is kept.
func (p *Pager) ClearFilters() {
	p.SetFilter(Filter{})
}

// LoadMore advances the window by one page. With an active filter, or once the
// whole catalog is loaded for a ranked order, the advance is local; otherwise it
// fetches after the cursor when the local set runs short.
// It is a no-op once HasMore is false and returns ErrLoadInProgress without
// side effects while another load runs.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return ErrLoadInProgress
	}
	if !p.hasMoreLocked() {
		p.mu.Unlock()
		return nil
	}
	if p.filter.Active() || p.exhausted || p.shown+p.pageSize <= len(p.loaded) {
		p.shown += p.pageSize
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	cursor := p.cursor
	p.mu.Unlock()

	page, err := p.fetcher.FetchStyles(ctx, cursor, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		return err
	}
	p.appendLocked(page)
	p.shown += p.pageSize
	return nil
}

func (p *Pager) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loading {
		return false
	}
	p.loading = true
	return true
}

func (p *Pager) end() {
	p.mu.Lock()
	p.loading = false
	p.mu.Unlock()
}

// drain fetches every page after the cursor. The caller holds the loading flag.
func (p *Pager) drain(ctx context.Context) error {
	for {
		p.mu.Lock()
		done, cursor := p.exhausted, p.cursor
		p.mu.Unlock()
		if done {
			return nil
		}
		page, err := p.fetcher.FetchStyles(ctx, cursor, p.pageSize)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.appendLocked(page)
		p.mu.Unlock()
	}
}

func (p *Pager) appendLocked(page Page) {
	for _, s := range page.Items {
		if _, dup := p.seen[s.ID]; dup {
			continue
		}
		p.seen[s.ID] = struct{}{}
		p.loaded = append(p.loaded, s)
	}
	if page.NextCursor != "" {
		p.cursor = page.NextCursor
	}
	if len(page.Items) < p.pageSize || page.NextCursor == "" {
		p.exhausted = true
	}
}

// Displayed returns the visible window of the filtered, sorted set.
func (p *Pager) Displayed() []domain.Style {
	p.mu.Lock()
	defer p.mu.Unlock()
	items, _ := Window(Apply(p.loaded, p.filter, p.sort), p.shown)
	return items
}

// HasMore reports whether LoadMore can show anything new.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMoreLocked()
}

func (p *Pager) hasMoreLocked() bool {
	matching := 0
	for _, s := range p.loaded {
		if p.filter.Match(s) {
			matching++
		}
	}
	if p.shown < matching {
		return true
	}
	return !p.filter.Active() && !p.exhausted
}

// Empty reports the empty state: nothing matches the current filter.
func (p *Pager) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.loaded {
		if p.filter.Match(s) {
			return false
		}
	}
	return true
}

// Loading reports whether a fetch is in flight.
func (p *Pager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Pager) Filter() Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}
