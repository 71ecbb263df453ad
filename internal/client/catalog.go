package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/resourcemart/storefront/internal/filter"
	"github.com/resourcemart/storefront/internal/models"
)

// QueryParams is one catalog query: cursor, free-text query and composed
// filters.
type QueryParams struct {
	Page    int
	Limit   int
	Query   string
	Filters filter.Filters
}

// QueryResult is the service's answer for a single page.
type QueryResult struct {
	Items   []models.Resource `json:"items"`
	Total   int64             `json:"total"`
	HasMore bool              `json:"has_more"`
}

// CatalogClient queries the remote catalog service.
type CatalogClient struct {
	httpClient
}

func NewCatalogClient(baseURL, token string) *CatalogClient {
	return &CatalogClient{httpClient: newHTTPClient(baseURL, token)}
}

func (c *CatalogClient) Query(ctx context.Context, p QueryParams) (*QueryResult, error) {
	v := p.Filters.Normalize().QueryParams()
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Query != "" {
		v.Set("q", p.Query)
	}

	var out QueryResult
	if err := c.doJSON(ctx, http.MethodGet, "/api/resources?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest returns typeahead candidates for a query prefix. Optional on the
// service side; callers fall back to local suggestions when it errors.
func (c *CatalogClient) Suggest(ctx context.Context, q string, limit int) ([]models.Suggestion, error) {
	v := url.Values{}
	v.Set("q", q)
	v.Set("limit", strconv.Itoa(limit))

	var out struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/resources/suggest?"+v.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}
