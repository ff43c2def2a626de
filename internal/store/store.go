// Package store owns product and image records. It is the single mutator of
// persisted gallery state; service code never touches rows directly.
package store

import (
	"context"
	"errors"

	"github.com/openmerch/gallery/internal/domain"
)

// ErrNotFound reports that a referenced product or image id does not exist.
// Callers treat it as "entity vanished", never as a retryable error.
var ErrNotFound = errors.New("record not found")

// ProductCreate carries the fields for a new product. Missing image urls fall
// back to the shared placeholder assets.
type ProductCreate struct {
	Name         string
	Description  string
	Price        float64
	ImageUrl     string
	ThumbnailUrl string
}

// ProductPatch is a partial update. Nil means "not provided"; a non-nil
// pointer is applied verbatim, including zero values. This keeps an explicit
// price of 0 distinguishable from an omitted price. The one exception is the
// image urls: clearing them falls back to the placeholder assets, since a
// product must always resolve a displayable image.
type ProductPatch struct {
	Name         *string
	Description  *string
	Price        *float64
	ImageUrl     *string
	ThumbnailUrl *string
}

// Empty reports whether the patch provides no fields at all.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.ImageUrl == nil && p.ThumbnailUrl == nil
}

// ImageCreate carries the fields for a new product image.
type ImageCreate struct {
	ProductId    int64
	Url          string
	ThumbnailUrl string
	AltText      string
	ImageType    string
	IsPrimary    bool
}

// ImagePatch is a partial image update with the same presence semantics as
// ProductPatch.
type ImagePatch struct {
	Url          *string
	ThumbnailUrl *string
	AltText      *string
	ImageType    *string
	IsPrimary    *bool
}

// GalleryPatch is a combined product edit plus per-image edits, keyed by image
// id, applied as one unit.
type GalleryPatch struct {
	Product *ProductPatch
	Images  map[int64]ImagePatch
}

// GalleryStore is the exclusive owner of product and image records.
//
// Mutations targeting the same product id are serialized with respect to each
// other; operations on unrelated products may proceed concurrently. Listing
// follows insertion order.
type GalleryStore interface {
	CreateProduct(ctx context.Context, in ProductCreate) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error)
	// DeleteProduct cascades to the product's images. It is deliberately not
	// idempotent: a repeat delete returns ErrNotFound so a desynced client
	// hears about it.
	DeleteProduct(ctx context.Context, id int64) error

	CreateImage(ctx context.Context, in ImageCreate) (*domain.ProductImage, error)
	GetImage(ctx context.Context, id int64) (*domain.ProductImage, error)
	ListImagesByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error)
	UpdateImage(ctx context.Context, id int64, patch ImagePatch) (*domain.ProductImage, error)
	DeleteImage(ctx context.Context, id int64) error

	// SetPrimaryImage atomically makes imageID the only primary image of the
	// product, clearing the flag on any previous primary. Idempotent in
	// effect.
	SetPrimaryImage(ctx context.Context, productID, imageID int64) error

	// ApplyGalleryPatch applies a product patch and a set of image patches
	// under one serialization unit: every image must belong to the product,
	// and either the whole patch lands or none of it does. An unknown or
	// foreign image id fails the call with ErrNotFound before any write.
	ApplyGalleryPatch(ctx context.Context, productID int64, patch GalleryPatch) (*domain.Product, error)
}
