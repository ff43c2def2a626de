package gallery

import (
	"context"
	"strings"
	"sync"

	"github.com/openmerch/gallery/internal/domain"
	"github.com/openmerch/gallery/internal/store"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// BackfillThumbnails regenerates missing thumbnail files across the catalog.
// Runs periodically from the scheduler; derivation work goes through a
// bounded worker pool so a large catalog cannot starve the process.
func (s *Service) BackfillThumbnails(ctx context.Context, workers int) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		zap.L().Error("failed to create backfill pool", zap.Error(err))
		return
	}
	defer pool.Release()

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		zap.L().Error("backfill: list products failed", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	var repaired int64
	var mu sync.Mutex

	submit := func(task func()) {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			task()
		}); err != nil {
			wg.Done()
			zap.L().Warn("backfill: submit failed", zap.Error(err))
		}
	}

	for i := range products {
		p := products[i]
		if s.needsThumbnail(p.ImageUrl, p.ThumbnailUrl) {
			submit(func() {
				thumb, err := s.thumbs.Derive(p.ImageUrl)
				if err != nil {
					zap.L().Debug("backfill: product thumbnail derivation failed",
						zap.Int64("product_id", p.ID), zap.Error(err))
					return
				}
				if _, err := s.store.UpdateProduct(ctx, p.ID, store.ProductPatch{ThumbnailUrl: &thumb}); err != nil {
					zap.L().Warn("backfill: product update failed", zap.Int64("product_id", p.ID), zap.Error(err))
					return
				}
				mu.Lock()
				repaired++
				mu.Unlock()
			})
		}

		images, err := s.store.ListImagesByProduct(ctx, p.ID)
		if err != nil {
			continue
		}
		for j := range images {
			img := images[j]
			if !s.needsThumbnail(img.Url, img.ThumbnailUrl) {
				continue
			}
			submit(func() {
				thumb, err := s.thumbs.Derive(img.Url)
				if err != nil {
					zap.L().Debug("backfill: image thumbnail derivation failed",
						zap.Int64("image_id", img.ID), zap.Error(err))
					return
				}
				if _, err := s.store.UpdateImage(ctx, img.ID, store.ImagePatch{ThumbnailUrl: &thumb}); err != nil {
					zap.L().Warn("backfill: image update failed", zap.Int64("image_id", img.ID), zap.Error(err))
					return
				}
				mu.Lock()
				repaired++
				mu.Unlock()
			})
		}
	}

	wg.Wait()
	if repaired > 0 {
		zap.L().Info("thumbnail backfill completed", zap.Int64("repaired", repaired))
	}
}

// needsThumbnail reports whether an asset is missing a usable derived
// thumbnail. Placeholder assets and urls outside /static are left alone.
func (s *Service) needsThumbnail(imageURL, thumbURL string) bool {
	if imageURL == "" || imageURL == domain.PlaceholderImageUrl {
		return false
	}
	if !strings.HasPrefix(imageURL, "/static/") {
		return false
	}
	if thumbURL == "" || thumbURL == imageURL || thumbURL == domain.PlaceholderThumbnailUrl {
		return true
	}
	return !s.thumbs.Exists(imageURL)
}
