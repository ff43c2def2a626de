package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openmerch/gallery/internal/domain"
)

const stripeCount = 64

var _ GalleryStore = (*MemStore)(nil)

// MemStore is the default arena-style store: id -> entity maps with
// monotonically increasing counters. Ids are never reused within a process
// lifetime, even after deletion.
//
// Mutations take the owning product's stripe lock first, so two writes to the
// same product never interleave while unrelated products proceed in parallel.
// The inner RWMutex only guards map structure for readers.
type MemStore struct {
	mu      sync.RWMutex
	stripes [stripeCount]sync.Mutex

	products   map[int64]*domain.Product
	order      []int64
	images     map[int64]*domain.ProductImage
	imageOrder map[int64][]int64

	nextProductID int64
	nextImageID   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:   make(map[int64]*domain.Product),
		images:     make(map[int64]*domain.ProductImage),
		imageOrder: make(map[int64][]int64),
	}
}

func (s *MemStore) stripe(productID int64) *sync.Mutex {
	return &s.stripes[uint64(productID)%stripeCount]
}

func copyProduct(p *domain.Product) *domain.Product {
	cp := *p
	return &cp
}

func copyImage(img *domain.ProductImage) *domain.ProductImage {
	cp := *img
	return &cp
}

func (s *MemStore) CreateProduct(ctx context.Context, in ProductCreate) (*domain.Product, error) {
	id := atomic.AddInt64(&s.nextProductID, 1)

	now := time.Now()
	p := &domain.Product{
		ID:           id,
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

	lock := s.stripe(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	s.products[id] = p
	s.order = append(s.order, id)
	s.mu.Unlock()

	return copyProduct(p), nil
}

func (s *MemStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProduct(p), nil
}

func (s *MemStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemStore) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error) {
	lock := s.stripe(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}

	applyProductPatch(p, patch, time.Now())

	return copyProduct(p), nil
}

// applyProductPatch merges a patch into the product. Cleared image urls fall
// back to the placeholders so grid display always resolves an image.
func applyProductPatch(p *domain.Product, patch ProductPatch, now time.Time) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ImageUrl != nil {
		p.ImageUrl = *patch.ImageUrl
	}
	if patch.ThumbnailUrl != nil {
		p.ThumbnailUrl = *patch.ThumbnailUrl
	}
	if p.ImageUrl == "" {
		p.ImageUrl = domain.PlaceholderImageUrl
	}
	if p.ThumbnailUrl == "" {
		p.ThumbnailUrl = domain.PlaceholderThumbnailUrl
	}
	p.UpdatedAt = now
}

func (s *MemStore) DeleteProduct(ctx context.Context, id int64) error {
	lock := s.stripe(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, imgID := range s.imageOrder[id] {
		delete(s.images, imgID)
	}
	delete(s.imageOrder, id)
	return nil
}

func (s *MemStore) CreateImage(ctx context.Context, in ImageCreate) (*domain.ProductImage, error) {
	lock := s.stripe(in.ProductId)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[in.ProductId]; !ok {
		return nil, ErrNotFound
	}

	id := atomic.AddInt64(&s.nextImageID, 1)
	now := time.Now()
	img := &domain.ProductImage{
		ID:           id,
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
	if img.IsPrimary {
		for _, otherID := range s.imageOrder[in.ProductId] {
			if other := s.images[otherID]; other != nil && other.IsPrimary {
				other.IsPrimary = false
				other.UpdatedAt = now
			}
		}
	}
	s.images[id] = img
	s.imageOrder[in.ProductId] = append(s.imageOrder[in.ProductId], id)

	return copyImage(img), nil
}

func (s *MemStore) GetImage(ctx context.Context, id int64) (*domain.ProductImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyImage(img), nil
}

func (s *MemStore) ListImagesByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.products[productID]; !ok {
		return nil, ErrNotFound
	}
	ids := s.imageOrder[productID]
	out := make([]domain.ProductImage, 0, len(ids))
	for _, id := range ids {
		if img, ok := s.images[id]; ok {
			out = append(out, *img)
		}
	}
	return out, nil
}

// ownerOf resolves the owning product id of an image so image mutations can
// take the product stripe.
func (s *MemStore) ownerOf(imageID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[imageID]
	if !ok {
		return 0, ErrNotFound
	}
	return img.ProductId, nil
}

func (s *MemStore) UpdateImage(ctx context.Context, id int64, patch ImagePatch) (*domain.ProductImage, error) {
	productID, err := s.ownerOf(id)
	if err != nil {
		return nil, err
	}

	lock := s.stripe(productID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return nil, ErrNotFound
	}

	s.applyImagePatchLocked(img, patch, time.Now())

	return copyImage(img), nil
}

// applyImagePatchLocked merges a patch into the image, clearing any previous
// primary when the patch promotes this one. Callers hold the product stripe
// and s.mu.
func (s *MemStore) applyImagePatchLocked(img *domain.ProductImage, patch ImagePatch, now time.Time) {
	if patch.Url != nil {
		img.Url = *patch.Url
	}
	if patch.ThumbnailUrl != nil {
		img.ThumbnailUrl = *patch.ThumbnailUrl
	}
	if patch.AltText != nil {
		img.AltText = *patch.AltText
	}
	if patch.ImageType != nil {
		img.ImageType = *patch.ImageType
	}
	if patch.IsPrimary != nil {
		if *patch.IsPrimary && !img.IsPrimary {
			for _, otherID := range s.imageOrder[img.ProductId] {
				if other := s.images[otherID]; other != nil && other.IsPrimary {
					other.IsPrimary = false
					other.UpdatedAt = now
				}
			}
		}
		img.IsPrimary = *patch.IsPrimary
	}
	img.UpdatedAt = now
}

func (s *MemStore) DeleteImage(ctx context.Context, id int64) error {
	productID, err := s.ownerOf(id)
	if err != nil {
		return err
	}

	lock := s.stripe(productID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.images, id)
	ids := s.imageOrder[img.ProductId]
	for i, imgID := range ids {
		if imgID == id {
			s.imageOrder[img.ProductId] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemStore) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	lock := s.stripe(productID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return ErrNotFound
	}
	target, ok := s.images[imageID]
	if !ok || target.ProductId != productID {
		return ErrNotFound
	}

	now := time.Now()
	for _, id := range s.imageOrder[productID] {
		img := s.images[id]
		if img == nil {
			continue
		}
		primary := id == imageID
		if img.IsPrimary != primary {
			img.IsPrimary = primary
			img.UpdatedAt = now
		}
	}
	return nil
}

// ApplyGalleryPatch applies the combined patch under the product's stripe, so
// no image can be deleted or reassigned between resolution and apply. All
// image ids are resolved before the first write.
func (s *MemStore) ApplyGalleryPatch(ctx context.Context, productID int64, patch GalleryPatch) (*domain.Product, error) {
	lock := s.stripe(productID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, ErrNotFound
	}

	ids := make([]int64, 0, len(patch.Images))
	for id := range patch.Images {
		img, ok := s.images[id]
		if !ok || img.ProductId != productID {
			return nil, ErrNotFound
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := time.Now()
	if patch.Product != nil {
		applyProductPatch(p, *patch.Product, now)
	}
	for _, id := range ids {
		s.applyImagePatchLocked(s.images[id], patch.Images[id], now)
	}

	return copyProduct(p), nil
}

// Seed populates the store with the demo catalog used in development mode.
func (s *MemStore) Seed(ctx context.Context) error {
	demos := []struct {
		name  string
		desc  string
		price float64
		image string
	}{
		{"Product 1", "This is product 1", 19.99, "/static/images/product1.jpg"},
		{"Product 2", "This is product 2", 29.99, "/static/images/product2.jpg"},
		{"Product 3", "This is product 3", 39.99, "/static/images/product3.jpg"},
	}
	for _, d := range demos {
		p, err := s.CreateProduct(ctx, ProductCreate{
			Name:         d.name,
			Description:  d.desc,
			Price:        d.price,
			ImageUrl:     d.image,
			ThumbnailUrl: "/static/images/thumbnails" + d.image[len("/static/images"):],
		})
		if err != nil {
			return err
		}
		if _, err := s.CreateImage(ctx, ImageCreate{
			ProductId:    p.ID,
			Url:          p.ImageUrl,
			ThumbnailUrl: p.ThumbnailUrl,
			AltText:      p.Name,
			ImageType:    domain.ImageTypeMain,
			IsPrimary:    true,
		}); err != nil {
			return err
		}
	}
	return nil
}
