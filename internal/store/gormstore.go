package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/openmerch/gallery/internal/domain"
	"gorm.io/gorm"
)

// GormStore persists products and images through gorm. Per-id serialization
// comes from row-level locking inside transactions; the database enforces it
// across processes, which the in-memory stripes cannot.
type GormStore struct {
	db *gorm.DB
}

var _ GalleryStore = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateProduct(ctx context.Context, in ProductCreate) (*domain.Product, error) {
	now := time.Now()
	p := domain.Product{
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		ImageUrl:     in.ImageUrl,
		ThumbnailUrl: in.ThumbnailUrl,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.ImageUrl == "" {
		p.ImageUrl = domain.PlaceholderImageUrl
	}
	if p.ThumbnailUrl == "" {
		p.ThumbnailUrl = domain.PlaceholderThumbnailUrl
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []domain.Product
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// productUpdates builds the column map for a product patch. Cleared image
// urls fall back to the placeholders so grid display always resolves an
// image.
func productUpdates(patch ProductPatch, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"updated_at": now}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.ImageUrl != nil {
		url := *patch.ImageUrl
		if url == "" {
			url = domain.PlaceholderImageUrl
		}
		updates["image_url"] = url
	}
	if patch.ThumbnailUrl != nil {
		url := *patch.ThumbnailUrl
		if url == "" {
			url = domain.PlaceholderThumbnailUrl
		}
		updates["thumbnail_url"] = url
	}
	return updates
}

func imageUpdates(patch ImagePatch, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"updated_at": now}
	if patch.Url != nil {
		updates["url"] = *patch.Url
	}
	if patch.ThumbnailUrl != nil {
		updates["thumbnail_url"] = *patch.ThumbnailUrl
	}
	if patch.AltText != nil {
		updates["alt_text"] = *patch.AltText
	}
	if patch.ImageType != nil {
		updates["image_type"] = *patch.ImageType
	}
	if patch.IsPrimary != nil {
		updates["is_primary"] = *patch.IsPrimary
	}
	return updates
}

func (s *GormStore) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error) {
	updates := productUpdates(patch, time.Now())

	var p domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&p, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.First(&p, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Product{}, id).Error
	})
}

func (s *GormStore) CreateImage(ctx context.Context, in ImageCreate) (*domain.ProductImage, error) {
	now := time.Now()
	img := domain.ProductImage{
		ProductId:    in.ProductId,
		Url:          in.Url,
		ThumbnailUrl: in.ThumbnailUrl,
		AltText:      in.AltText,
		ImageType:    in.ImageType,
		IsPrimary:    in.IsPrimary,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if img.ImageType == "" {
		img.ImageType = domain.ImageTypeMain
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.First(&p, in.ProductId).Error; err != nil {
			return translate(err)
		}
		if img.IsPrimary {
			if err := tx.Model(&domain.ProductImage{}).
				Where("product_id = ? AND is_primary", in.ProductId).
				Updates(map[string]interface{}{"is_primary": false, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&img).Error
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *GormStore) GetImage(ctx context.Context, id int64) (*domain.ProductImage, error) {
	var img domain.ProductImage
	if err := s.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, translate(err)
	}
	return &img, nil
}

func (s *GormStore) ListImagesByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		return nil, translate(err)
	}
	var rows []domain.ProductImage
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) UpdateImage(ctx context.Context, id int64, patch ImagePatch) (*domain.ProductImage, error) {
	now := time.Now()
	updates := imageUpdates(patch, now)

	var img domain.ProductImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&img, id).Error; err != nil {
			return translate(err)
		}
		if patch.IsPrimary != nil && *patch.IsPrimary {
			if err := tx.Model(&domain.ProductImage{}).
				Where("product_id = ? AND id <> ? AND is_primary", img.ProductId, id).
				Updates(map[string]interface{}{"is_primary": false, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&domain.ProductImage{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&img, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *GormStore) DeleteImage(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img domain.ProductImage
		if err := tx.First(&img, id).Error; err != nil {
			return translate(err)
		}
		return tx.Delete(&domain.ProductImage{}, id).Error
	})
}

// ApplyGalleryPatch applies the combined patch in one transaction. Every
// image id is resolved against the product before the first write, so a
// foreign or vanished image rolls the whole save back.
func (s *GormStore) ApplyGalleryPatch(ctx context.Context, productID int64, patch GalleryPatch) (*domain.Product, error) {
	ids := make([]int64, 0, len(patch.Images))
	for id := range patch.Images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var p domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, productID).Error; err != nil {
			return translate(err)
		}
		for _, id := range ids {
			var img domain.ProductImage
			if err := tx.Where("id = ? AND product_id = ?", id, productID).First(&img).Error; err != nil {
				return translate(err)
			}
		}

		now := time.Now()
		if patch.Product != nil {
			updates := productUpdates(*patch.Product, now)
			if err := tx.Model(&domain.Product{}).Where("id = ?", productID).Updates(updates).Error; err != nil {
				return err
			}
		}
		for _, id := range ids {
			ip := patch.Images[id]
			if ip.IsPrimary != nil && *ip.IsPrimary {
				if err := tx.Model(&domain.ProductImage{}).
					Where("product_id = ? AND id <> ? AND is_primary", productID, id).
					Updates(map[string]interface{}{"is_primary": false, "updated_at": now}).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&domain.ProductImage{}).Where("id = ?", id).Updates(imageUpdates(ip, now)).Error; err != nil {
				return err
			}
		}
		return tx.First(&p, productID).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img domain.ProductImage
		if err := tx.Where("id = ? AND product_id = ?", imageID, productID).First(&img).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&domain.ProductImage{}).
			Where("product_id = ? AND id <> ?", productID, imageID).
			Updates(map[string]interface{}{"is_primary": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.ProductImage{}).Where("id = ?", imageID).
			Updates(map[string]interface{}{"is_primary": true, "updated_at": now}).Error
	})
}
