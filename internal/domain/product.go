package domain

import "time"

// Placeholder assets used when a product has no uploaded image yet. Every
// product resolves a displayable image_url, even right after creation.
const (
	PlaceholderImageUrl     = "/static/images/placeholder.jpg"
	PlaceholderThumbnailUrl = "/static/images/thumbnails/placeholder.jpg"
)

// Product represents a sellable catalog entity with associated images
type Product struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"index" json:"name"`
	Description  string    `gorm:"size:2048" json:"description"`
	Price        float64   `json:"price"`
	ImageUrl     string    `gorm:"size:1024" json:"image_url"`
	ThumbnailUrl string    `gorm:"size:1024" json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "gallery_product"
}
