package client

import (
	"context"
	"net/http"

	"github.com/resourcemart/storefront/internal/models"
)

// CartClient talks to the remote cart service. Every mutation returns the
// full authoritative snapshot so callers can replace local state wholesale.
type CartClient struct {
	httpClient
}

func NewCartClient(baseURL, token string) *CartClient {
	return &CartClient{httpClient: newHTTPClient(baseURL, token)}
}

func (c *CartClient) Get(ctx context.Context) (*models.Cart, error) {
	var out models.Cart
	if err := c.doJSON(ctx, http.MethodGet, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CartClient) AddItem(ctx context.Context, resourceID string, quantity int) (*models.Cart, error) {
	body := map[string]any{"resource_id": resourceID, "quantity": quantity}
	var out models.Cart
	if err := c.doJSON(ctx, http.MethodPost, "/api/cart/items", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CartClient) UpdateItem(ctx context.Context, resourceID string, quantity int) (*models.Cart, error) {
	body := map[string]any{"quantity": quantity}
	var out models.Cart
	if err := c.doJSON(ctx, http.MethodPatch, "/api/cart/items/"+resourceID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CartClient) RemoveItem(ctx context.Context, resourceID string) (*models.Cart, error) {
	var out models.Cart
	if err := c.doJSON(ctx, http.MethodDelete, "/api/cart/items/"+resourceID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CartClient) Clear(ctx context.Context) (*models.Cart, error) {
	var out models.Cart
	if err := c.doJSON(ctx, http.MethodDelete, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
