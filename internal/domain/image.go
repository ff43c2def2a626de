package domain

import "time"

// Image type classification. Unknown types are rejected at the service layer.
const (
	ImageTypeMain      = "main"
	ImageTypeDetail    = "detail"
	ImageTypePackage   = "package"
	ImageTypeLifestyle = "lifestyle"
)

// ValidImageType reports whether t is one of the supported image types.
func ValidImageType(t string) bool {
	switch t {
	case ImageTypeMain, ImageTypeDetail, ImageTypePackage, ImageTypeLifestyle:
		return true
	}
	return false
}

// ProductImage is an owned asset record attached to a product. Its lifetime is
// bounded by the product: deleting a product cascades to its images. At most
// one image per product carries is_primary=true.
type ProductImage struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductId    int64     `gorm:"index" json:"product_id"`
	Url          string    `gorm:"size:1024" json:"url"`
	ThumbnailUrl string    `gorm:"size:1024" json:"thumbnail_url"`
	AltText      string    `gorm:"size:512" json:"alt_text"`
	ImageType    string    `gorm:"size:32" json:"image_type"`
	IsPrimary    bool      `gorm:"index" json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (ProductImage) TableName() string {
	return "gallery_product_image"
}
