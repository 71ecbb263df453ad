package models

import "time"

// ResourceType enumerates the kinds of digital resources in the catalog.
type ResourceType string

const (
	TypeVideo    ResourceType = "video"
	TypeSoftware ResourceType = "software"
	TypeDocument ResourceType = "document"
	TypeArticle  ResourceType = "article"
	TypeFile     ResourceType = "file"
)

// SortKey enumerates the supported catalog sort orders.
type SortKey string

const (
	SortLatest  SortKey = "latest"
	SortPopular SortKey = "popular"
	SortPrice   SortKey = "price"
	SortRating  SortKey = "rating"
)

type Author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Verified bool   `json:"verified"`
}

type ResourceStats struct {
	Downloads   int64   `json:"downloads"`
	Views       int64   `json:"views"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"review_count"`
}

// Resource is a catalog item. The client only ever reads resources.
type Resource struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Type          ResourceType  `json:"type"`
	Price         float64       `json:"price"`
	OriginalPrice *float64      `json:"original_price,omitempty"`
	Author        Author        `json:"author"`
	Stats         ResourceStats `json:"stats"`
	Tags          []string      `json:"tags,omitempty"`
	Thumbnail     string        `json:"thumbnail,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Pagination tracks the catalog cursor. HasMore holds iff page*limit < total.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

type CartItem struct {
	ResourceID string  `json:"resource_id"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	Quantity   int     `json:"quantity"`
}

// Cart is an authoritative cart snapshot: Total and ItemCount are derived
// from Items and recomputed on every mutation, never patched incrementally.
type Cart struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

// Recalculate rebuilds the derived aggregates from Items.
func (c *Cart) Recalculate() {
	var total float64
	var count int
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
		count += it.Quantity
	}
	c.Total = total
	c.ItemCount = count
}

// Suggestion is a typeahead candidate fed to the search box by its caller.
type Suggestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}
