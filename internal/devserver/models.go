package devserver

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resourcemart/storefront/internal/models"
)

// ResourceRow is the stored form of a catalog resource. Author and stats
// are flattened; tags are a JSON-encoded array so the row works on both
// sqlite and postgres.
type ResourceRow struct {
	ID             string    `gorm:"primaryKey"`
	Title          string    `gorm:"not null;index"`
	Description    string    `gorm:"not null"`
	Category       string    `gorm:"not null;index"`
	Type           string    `gorm:"not null;index"`
	Price          float64   `gorm:"not null"`
	OriginalPrice  *float64  ``
	AuthorID       string    `gorm:"not null"`
	AuthorName     string    `gorm:"not null"`
	AuthorAvatar   string    ``
	AuthorVerified bool      `gorm:"default:false"`
	Downloads      int64     `gorm:"default:0"`
	Views          int64     `gorm:"default:0"`
	Rating         float64   `gorm:"default:0;index"`
	ReviewCount    int64     `gorm:"default:0"`
	Tags           string    ``
	Thumbnail      string    ``
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time ``
}

func (ResourceRow) TableName() string {
	return "resources"
}

func (r *ResourceRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ToResource converts the row into the wire shape.
func (r ResourceRow) ToResource() models.Resource {
	var tags []string
	if r.Tags != "" {
		_ = json.Unmarshal([]byte(r.Tags), &tags)
	}
	return models.Resource{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		Type:          models.ResourceType(r.Type),
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Author: models.Author{
			ID:       r.AuthorID,
			Name:     r.AuthorName,
			Avatar:   r.AuthorAvatar,
			Verified: r.AuthorVerified,
		},
		Stats: models.ResourceStats{
			Downloads:   r.Downloads,
			Views:       r.Views,
			Rating:      r.Rating,
			ReviewCount: r.ReviewCount,
		},
		Tags:      tags,
		Thumbnail: r.Thumbnail,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// CartRow is one cart line for a session.
type CartRow struct {
	ID         string `gorm:"primaryKey"`
	SessionID  string `gorm:"uniqueIndex:idx_session_resource;not null"`
	ResourceID string `gorm:"uniqueIndex:idx_session_resource;not null"`
	Quantity   int    `gorm:"not null;check:quantity>0"`
}

func (CartRow) TableName() string {
	return "cart_rows"
}

func (c *CartRow) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Account is a storefront user for the login endpoint.
type Account struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Avatar       string ``
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
