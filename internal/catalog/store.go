// Package catalog owns the paginated, filtered, searched resource listing.
//
// The store reconciles an authoritative remote catalog with a local copy:
// page 1 responses replace the list, later pages append, and any filter or
// search change atomically resets the cursor and clears the accumulated
// results before refetching. Every fetch carries a generation tag; a
// response whose generation has been superseded is dropped instead of
// applied, so out-of-order arrivals can never mix result sets.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/resourcemart/storefront/internal/client"
	"github.com/resourcemart/storefront/internal/filter"
	"github.com/resourcemart/storefront/internal/logging"
	"github.com/resourcemart/storefront/internal/models"
)

// DefaultLimit is the page size used unless WithLimit overrides it.
const DefaultLimit = 20

// Status is the store's lifecycle state for the current query generation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// Querier is the remote catalog dependency. *client.CatalogClient satisfies
// it; tests inject fakes.
type Querier interface {
	Query(ctx context.Context, p client.QueryParams) (*client.QueryResult, error)
}

// Store is a dependency-injected state container; construct one per user
// session (or per test). All methods are safe for concurrent use.
type Store struct {
	remote Querier
	log    *slog.Logger

	mu          sync.Mutex
	resources   []models.Resource
	pagination  models.Pagination
	query       string
	filters     filter.Filters
	filtersInit bool
	status      Status
	err         string

	// generation identifies the query state a fetch belongs to. It is
	// bumped by every fetch start and by every action that invalidates
	// outstanding fetches (search, filter change, reset).
	generation uint64
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithLimit(limit int) Option {
	return func(s *Store) {
		if limit > 0 && limit <= 100 {
			s.pagination.Limit = limit
		}
	}
}

func NewStore(remote Querier, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		log:    logging.Discard(),
		status: StatusIdle,
		pagination: models.Pagination{
			Page:  1,
			Limit: DefaultLimit,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch loads the page the cursor currently points at. Page 1 replaces the
// resource list; later pages append without duplicating ids.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.status = StatusLoading
	s.err = ""
	params := client.QueryParams{
		Page:    s.pagination.Page,
		Limit:   s.pagination.Limit,
		Query:   s.query,
		Filters: s.filters,
	}
	s.mu.Unlock()

	res, err := s.remote.Query(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// Superseded while in flight. A newer action owns the state now;
		// dropping silently is the correct outcome, not an error.
		s.log.Debug("fetch_stale_dropped", "page", params.Page, "query", params.Query)
		return nil
	}

	if err != nil {
		if params.Page > 1 {
			// The page advance is not committed until its response is
			// applied; otherwise a retry would skip the failed page.
			s.pagination.Page = params.Page - 1
		}
		s.status = StatusError
		s.err = errorMessage(err)
		s.log.Warn("fetch_failed", "page", params.Page, "query", params.Query, "error", err)
		return err
	}

	if params.Page > 1 {
		s.appendLocked(res.Items)
	} else {
		s.resources = append([]models.Resource(nil), res.Items...)
	}
	s.pagination.Total = res.Total
	s.pagination.HasMore = int64(s.pagination.Page)*int64(s.pagination.Limit) < res.Total
	s.status = StatusLoaded
	s.log.Debug("fetch_applied", "page", params.Page, "count", len(res.Items), "total", res.Total)
	return nil
}

// Search commits a query string: resets the cursor, clears the list and
// fetches page 1. Drive this from the debounced search box, never from raw
// keystrokes.
func (s *Store) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	s.query = query
	s.invalidateLocked()
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// SetFilters merges a partial filter change and invalidates the cursor.
// It deliberately does not fetch, so callers can batch several changes
// before one Fetch.
func (s *Store) SetFilters(p filter.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = p.Apply(s.filters)
	s.filtersInit = true
	s.invalidateLocked()
}

// LoadMore advances the cursor and fetches in append mode. No-op while a
// fetch is outstanding or when the last page was reached.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusLoading || !s.pagination.HasMore {
		s.mu.Unlock()
		return nil
	}
	s.pagination.Page++
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// Reset returns the store to its initial state, keeping the configured
// page limit.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.filters = filter.Filters{}
	s.filtersInit = false
	s.status = StatusIdle
	s.err = ""
	s.invalidateLocked()
}

// invalidateLocked resets the cursor and clears accumulated results in one
// critical section, and supersedes any fetch in flight.
func (s *Store) invalidateLocked() {
	s.pagination.Page = 1
	s.pagination.Total = 0
	s.pagination.HasMore = false
	s.resources = nil
	s.generation++
}

func (s *Store) appendLocked(items []models.Resource) {
	seen := make(map[string]struct{}, len(s.resources))
	for _, r := range s.resources {
		seen[r.ID] = struct{}{}
	}
	for _, r := range items {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		s.resources = append(s.resources, r)
	}
}

// Resources returns a copy of the current result list.
func (s *Store) Resources() []models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Resource(nil), s.resources...)
}

func (s *Store) Pagination() models.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Filters returns the composed filter and whether filters were ever set.
// A zero Filters with ok=true is a deliberate "show everything".
func (s *Store) Filters() (f filter.Filters, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters, s.filtersInit
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) Loading() bool {
	return s.Status() == StatusLoading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
	if s.status == StatusError {
		s.status = StatusIdle
	}
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
