package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resourcemart/storefront/internal/client"
	"github.com/resourcemart/storefront/internal/filter"
	"github.com/resourcemart/storefront/internal/models"
)

// fakeCatalog serves a fixed dataset with category and substring-query
// filtering, mimicking the remote service's paging contract.
type fakeCatalog struct {
	mu    sync.Mutex
	items []models.Resource
	err   error
	calls int

	// hooks for concurrency tests
	started chan struct{}
	gate    chan struct{}
}

func (f *fakeCatalog) Query(ctx context.Context, p client.QueryParams) (*client.QueryResult, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	var matched []models.Resource
	for _, r := range f.items {
		if p.Filters.Category != "" && r.Category != p.Filters.Category {
			continue
		}
		if p.Query != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(p.Query)) {
			continue
		}
		matched = append(matched, r)
	}

	total := int64(len(matched))
	from := (p.Page - 1) * p.Limit
	if from > len(matched) {
		from = len(matched)
	}
	to := from + p.Limit
	if to > len(matched) {
		to = len(matched)
	}
	return &client.QueryResult{
		Items:   matched[from:to],
		Total:   total,
		HasMore: int64(p.Page*p.Limit) < total,
	}, nil
}

func dataset(n int, category string) []models.Resource {
	out := make([]models.Resource, n)
	for i := range out {
		out[i] = models.Resource{
			ID:       fmt.Sprintf("%s-%03d", category, i+1),
			Title:    fmt.Sprintf("Resource %d", i+1),
			Category: category,
			Price:    float64(10 * (i + 1)),
		}
	}
	return out
}

func TestFetchReplacesOnPageOne(t *testing.T) {
	remote := &fakeCatalog{items: dataset(5, "前端开发")}
	s := NewStore(remote)

	require.NoError(t, s.Fetch(context.Background()))
	require.Len(t, s.Resources(), 5)
	require.Equal(t, StatusLoaded, s.Status())

	// A second page-1 fetch replaces, never accumulates.
	require.NoError(t, s.Fetch(context.Background()))
	require.Len(t, s.Resources(), 5)
}

func TestLoadMoreScenario(t *testing.T) {
	// 45 matching items at limit 20: pages of 20, 20 and 5, then a no-op.
	remote := &fakeCatalog{items: dataset(45, "前端开发")}
	s := NewStore(remote)
	s.SetFilters(filter.Patch{Category: filter.Set("前端开发")})

	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx))
	require.Len(t, s.Resources(), 20)
	require.True(t, s.Pagination().HasMore)

	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Resources(), 40)
	require.True(t, s.Pagination().HasMore)

	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Resources(), 45)
	require.False(t, s.Pagination().HasMore)

	calls := remote.calls
	require.NoError(t, s.LoadMore(ctx))
	require.Equal(t, calls, remote.calls, "loadMore past the end is a no-op")
	require.Len(t, s.Resources(), 45)

	// No duplicate ids across appends.
	seen := map[string]bool{}
	for _, r := range s.Resources() {
		require.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestSearchResetsPaginationAndList(t *testing.T) {
	remote := &fakeCatalog{items: append(dataset(30, "前端开发"), dataset(3, "UI设计")...)}
	s := NewStore(remote)

	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx))
	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Resources(), 33)

	require.NoError(t, s.Search(ctx, "Resource 1"))
	require.Equal(t, 1, s.Pagination().Page)
	require.Equal(t, "Resource 1", s.Query())
	for _, r := range s.Resources() {
		require.Contains(t, r.Title, "Resource 1", "no residue from the previous query")
	}
}

func TestSetFiltersInvalidatesWithoutFetching(t *testing.T) {
	remote := &fakeCatalog{items: dataset(30, "前端开发")}
	s := NewStore(remote)

	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx))
	require.NotEmpty(t, s.Resources())

	calls := remote.calls
	s.SetFilters(filter.Patch{Category: filter.Set("UI设计")})
	s.SetFilters(filter.Patch{SortBy: filter.Set(models.SortPrice)})

	require.Equal(t, calls, remote.calls, "filter changes batch without fetching")
	require.Empty(t, s.Resources(), "stale results cleared on filter change")
	require.Equal(t, 1, s.Pagination().Page)

	f, ok := s.Filters()
	require.True(t, ok)
	require.Equal(t, "UI设计", f.Category)
	require.Equal(t, models.SortPrice, f.SortBy)
}

func TestFiltersUninitializedVersusEmpty(t *testing.T) {
	s := NewStore(&fakeCatalog{})
	_, ok := s.Filters()
	require.False(t, ok, "no filters were ever set")

	s.SetFilters(filter.Patch{})
	f, ok := s.Filters()
	require.True(t, ok, "an empty filter set is still a deliberate state")
	require.True(t, f.IsZero())
}

func TestFetchErrorKeepsPreviousResults(t *testing.T) {
	remote := &fakeCatalog{items: dataset(5, "前端开发")}
	s := NewStore(remote)

	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx))

	remote.err = errors.New("connection refused")
	require.Error(t, s.Fetch(ctx))
	require.Equal(t, StatusError, s.Status())
	require.Equal(t, "connection refused", s.Err())
	require.Len(t, s.Resources(), 5, "prior list untouched on error")

	s.ClearError()
	require.Empty(t, s.Err())
	require.Equal(t, StatusIdle, s.Status())
}

func TestLoadMoreFailureRetriesSamePage(t *testing.T) {
	remote := &fakeCatalog{items: dataset(45, "前端开发")}
	s := NewStore(remote)
	ctx := context.Background()

	require.NoError(t, s.Fetch(ctx))
	require.Len(t, s.Resources(), 20)

	remote.err = errors.New("connection refused")
	require.Error(t, s.LoadMore(ctx))
	require.Len(t, s.Resources(), 20, "failed page leaves the list untouched")
	require.Equal(t, 1, s.Pagination().Page, "failed advance is rolled back")

	// Retrying must load the page that failed, not the one after it.
	remote.err = nil
	s.ClearError()
	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Resources(), 40)

	ids := map[string]bool{}
	for _, r := range s.Resources() {
		ids[r.ID] = true
	}
	require.True(t, ids["前端开发-021"], "no gap in the accumulated list")

	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Resources(), 45)
	require.False(t, s.Pagination().HasMore)
}

func TestAPIErrorSurfacesServerMessage(t *testing.T) {
	remote := &fakeCatalog{err: &client.APIError{Status: 422, Message: "invalid rating floor"}}
	s := NewStore(remote)

	require.Error(t, s.Fetch(context.Background()))
	require.Equal(t, "invalid rating floor", s.Err())
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	remote := &fakeCatalog{
		items:   dataset(10, "前端开发"),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := NewStore(remote)

	done := make(chan error, 1)
	go func() { done <- s.Fetch(context.Background()) }()
	<-remote.started

	// The user changes filters while the fetch is in flight.
	s.SetFilters(filter.Patch{Category: filter.Set("UI设计")})

	close(remote.gate)
	require.NoError(t, <-done, "a discarded stale response is not an error")
	require.Empty(t, s.Resources(), "superseded response must not be applied")
}

func TestLoadMoreNoopWhileFetchInFlight(t *testing.T) {
	remote := &fakeCatalog{
		items:   dataset(45, "前端开发"),
		started: make(chan struct{}, 2),
		gate:    make(chan struct{}),
	}
	s := NewStore(remote)

	// Seed page 1 with the gate open.
	close(remote.gate)
	require.NoError(t, s.Fetch(context.Background()))
	<-remote.started
	require.True(t, s.Pagination().HasMore)

	// Now block the next fetch mid-flight.
	remote.gate = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.LoadMore(context.Background()) }()
	<-remote.started

	require.NoError(t, s.LoadMore(context.Background()), "re-entrant loadMore is a no-op")
	require.Equal(t, 2, s.Pagination().Page, "page advanced exactly once")

	close(remote.gate)
	require.NoError(t, <-done)
	require.Len(t, s.Resources(), 40)
}

func TestResetReturnsToInitialState(t *testing.T) {
	remote := &fakeCatalog{items: dataset(5, "前端开发")}
	s := NewStore(remote, WithLimit(10))

	ctx := context.Background()
	s.SetFilters(filter.Patch{Category: filter.Set("前端开发")})
	require.NoError(t, s.Search(ctx, "Resource"))
	require.NotEmpty(t, s.Resources())

	s.Reset()
	require.Empty(t, s.Resources())
	require.Empty(t, s.Query())
	require.Equal(t, StatusIdle, s.Status())
	_, ok := s.Filters()
	require.False(t, ok)
	require.Equal(t, 10, s.Pagination().Limit, "configured limit survives reset")
}
