package store

import (
	"context"
	"sync"
	"testing"

	"github.com/openmerch/gallery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemStore {
	t.Helper()
	return NewMemStore()
}

func createWidget(t *testing.T, s *MemStore) *domain.Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), ProductCreate{
		Name:        "Widget",
		Description: "A widget",
		Price:       19.99,
	})
	require.NoError(t, err)
	return p
}

func TestCreateAndReadProduct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := createWidget(t, s)
	require.NotZero(t, p.ID)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, "A widget", got.Description)
	assert.Equal(t, 19.99, got.Price)
	// A product always resolves a displayable image, even right after
	// creation.
	assert.Equal(t, domain.PlaceholderImageUrl, got.ImageUrl)
	assert.Equal(t, domain.PlaceholderThumbnailUrl, got.ThumbnailUrl)
}

func TestGetProductNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProductsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	names := []string{"first", "second", "third"}
	for _, n := range names {
		_, err := s.CreateProduct(ctx, ProductCreate{Name: n, Description: "d", Price: 1})
		require.NoError(t, err)
	}

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for i, n := range names {
		assert.Equal(t, n, products[i].Name)
	}
}

func TestUpdateProductPartialMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	price := 24.99
	updated, err := s.UpdateProduct(ctx, p.ID, ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 24.99, updated.Price)
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, "A widget", updated.Description)
}

func TestUpdateProductZeroPriceIsProvided(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	// An explicit zero must be applied, not confused with "field omitted".
	zero := 0.0
	updated, err := s.UpdateProduct(ctx, p.ID, ProductPatch{Price: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Price)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Price)
}

func TestUpdateProductClearedUrlsFallBackToPlaceholder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, ProductCreate{
		Name:         "Widget",
		Description:  "A widget",
		Price:        19.99,
		ImageUrl:     "/static/images/widget.jpg",
		ThumbnailUrl: "/static/images/thumbnails/widget.jpg",
	})
	require.NoError(t, err)

	// Clearing the urls must not leave the product without a displayable
	// image; the placeholder steps in instead.
	empty := ""
	updated, err := s.UpdateProduct(ctx, p.ID, ProductPatch{ImageUrl: &empty, ThumbnailUrl: &empty})
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderImageUrl, updated.ImageUrl)
	assert.Equal(t, domain.PlaceholderThumbnailUrl, updated.ThumbnailUrl)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ImageUrl)
	assert.NotEmpty(t, got.ThumbnailUrl)
}

func TestUpdateProductNotFound(t *testing.T) {
	s := newTestStore(t)
	name := "x"
	_, err := s.UpdateProduct(context.Background(), 99, ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	img, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/a.jpg", IsPrimary: true})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))

	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ListImagesByProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetImage(ctx, img.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductNotIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	// A repeat delete surfaces client/server desync instead of succeeding
	// silently.
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestIdsNeverReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p1 := createWidget(t, s)
	require.NoError(t, s.DeleteProduct(ctx, p1.ID))

	p2 := createWidget(t, s)
	assert.Greater(t, p2.ID, p1.ID)
}

func TestCreateImagePrimaryFlip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	first, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/a.jpg", IsPrimary: true})
	require.NoError(t, err)
	second, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/b.jpg", IsPrimary: true})
	require.NoError(t, err)

	images, err := s.ListImagesByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)

	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
			assert.Equal(t, second.ID, img.ID)
		}
	}
	assert.Equal(t, 1, primaries)
	_ = first
}

func TestSetPrimaryImageIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	a, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/a.jpg", IsPrimary: true})
	require.NoError(t, err)
	b, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/b.jpg"})
	require.NoError(t, err)

	require.NoError(t, s.SetPrimaryImage(ctx, p.ID, b.ID))
	require.NoError(t, s.SetPrimaryImage(ctx, p.ID, b.ID))

	images, err := s.ListImagesByProduct(ctx, p.ID)
	require.NoError(t, err)
	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
			assert.Equal(t, b.ID, img.ID)
		}
	}
	assert.Equal(t, 1, primaries)
	_ = a
}

func TestSetPrimaryImageForeignImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p1 := createWidget(t, s)
	p2 := createWidget(t, s)

	img, err := s.CreateImage(ctx, ImageCreate{ProductId: p2.ID, Url: "/static/images/b.jpg"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetPrimaryImage(ctx, p1.ID, img.ID), ErrNotFound)
}

func TestImagePatchPresenceSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	img, err := s.CreateImage(ctx, ImageCreate{
		ProductId: p.ID,
		Url:       "/static/images/a.jpg",
		AltText:   "original alt",
		ImageType: domain.ImageTypeDetail,
	})
	require.NoError(t, err)

	// A provided empty string clears the field; an absent field retains the
	// prior value.
	empty := ""
	updated, err := s.UpdateImage(ctx, img.ID, ImagePatch{AltText: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", updated.AltText)
	assert.Equal(t, domain.ImageTypeDetail, updated.ImageType)
}

func TestConcurrentUpdatesDistinctProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var products []*domain.Product
	for i := 0; i < 8; i++ {
		products = append(products, createWidget(t, s))
	}

	var wg sync.WaitGroup
	for _, p := range products {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				price := float64(i + 1)
				_, err := s.UpdateProduct(ctx, p.ID, ProductPatch{Price: &price})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for _, p := range products {
		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 50.0, got.Price)
	}
}

func TestApplyGalleryPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := createWidget(t, s)

	a, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/a.jpg", IsPrimary: true})
	require.NoError(t, err)
	b, err := s.CreateImage(ctx, ImageCreate{ProductId: p.ID, Url: "/static/images/b.jpg"})
	require.NoError(t, err)

	t.Run("applies product and images as one unit", func(t *testing.T) {
		name := "Gadget"
		alt := "rear view"
		yes := true
		updated, err := s.ApplyGalleryPatch(ctx, p.ID, GalleryPatch{
			Product: &ProductPatch{Name: &name},
			Images: map[int64]ImagePatch{
				a.ID: {AltText: &alt},
				b.ID: {IsPrimary: &yes},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Gadget", updated.Name)

		images, err := s.ListImagesByProduct(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, images, 2)
		primaries := 0
		for _, img := range images {
			if img.IsPrimary {
				primaries++
				assert.Equal(t, b.ID, img.ID)
			}
			if img.ID == a.ID {
				assert.Equal(t, "rear view", img.AltText)
			}
		}
		assert.Equal(t, 1, primaries)
	})

	t.Run("foreign image fails before any write", func(t *testing.T) {
		other := createWidget(t, s)
		foreign, err := s.CreateImage(ctx, ImageCreate{ProductId: other.ID, Url: "/static/images/f.jpg"})
		require.NoError(t, err)

		name := "should not apply"
		alt := "nope"
		_, err = s.ApplyGalleryPatch(ctx, p.ID, GalleryPatch{
			Product: &ProductPatch{Name: &name},
			Images: map[int64]ImagePatch{
				a.ID:       {AltText: &alt},
				foreign.ID: {AltText: &alt},
			},
		})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gadget", got.Name)
		img, err := s.GetImage(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "rear view", img.AltText)
	})

	t.Run("deleted image fails the patch", func(t *testing.T) {
		require.NoError(t, s.DeleteImage(ctx, b.ID))
		yes := true
		_, err := s.ApplyGalleryPatch(ctx, p.ID, GalleryPatch{
			Images: map[int64]ImagePatch{b.ID: {IsPrimary: &yes}},
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty patch returns current product", func(t *testing.T) {
		got, err := s.ApplyGalleryPatch(ctx, p.ID, GalleryPatch{})
		require.NoError(t, err)
		assert.Equal(t, "Gadget", got.Name)
	})

	t.Run("missing product", func(t *testing.T) {
		_, err := s.ApplyGalleryPatch(ctx, 9999, GalleryPatch{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)

	for _, p := range products {
		images, err := s.ListImagesByProduct(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.True(t, images[0].IsPrimary)
	}
}
