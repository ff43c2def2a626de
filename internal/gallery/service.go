// Package gallery maps request-level operations onto the store, derives
// thumbnails and assembles popup payloads. The service is stateless per
// request; all durable state lives in the store.
package gallery

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/openmerch/gallery/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	store  store.GalleryStore
	blobs  *BlobStore
	thumbs *Thumbnailer
	node   *snowflake.Node
}

func NewService(st store.GalleryStore, blobs *BlobStore) (*Service, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:  st,
		blobs:  blobs,
		thumbs: NewThumbnailer(blobs),
		node:   node,
	}, nil
}

func (s *Service) popupID() string {
	return "popup-" + s.node.Generate().String()
}

// deriveThumbnail resolves the thumbnail for an original url, degrading to
// the original url itself when derivation fails. Lossy but available.
func (s *Service) deriveThumbnail(imageURL string) string {
	if imageURL == "" || imageURL == domain.PlaceholderImageUrl {
		return domain.PlaceholderThumbnailUrl
	}
	if s.thumbs.Exists(imageURL) {
		return s.blobs.ThumbnailUrlFor(imageURL)
	}
	thumbURL, err := s.thumbs.Derive(imageURL)
	if err != nil {
		zap.L().Warn("thumbnail derivation failed, using original",
			zap.String("image_url", imageURL), zap.Error(err))
		return imageURL
	}
	return thumbURL
}

func validateProductFields(name, description *string, price *float64) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return invalidf("name", "must not be empty")
	}
	if description != nil && len(*description) > 2000 {
		return invalidf("description", "must be at most 2000 characters")
	}
	if price != nil && *price <= 0 {
		return invalidf("price", "must be greater than 0")
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in store.ProductCreate) (*domain.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidf("name", "is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, invalidf("description", "is required")
	}
	if in.Price <= 0 {
		return nil, invalidf("price", "must be greater than 0")
	}
	if in.ImageUrl != "" && in.ThumbnailUrl == "" {
		in.ThumbnailUrl = s.deriveThumbnail(in.ImageUrl)
	}
	return s.store.CreateProduct(ctx, in)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch store.ProductPatch) (*domain.Product, error) {
	if err := validateProductFields(patch.Name, patch.Description, patch.Price); err != nil {
		return nil, err
	}
	if patch.ImageUrl != nil && *patch.ImageUrl != "" && patch.ThumbnailUrl == nil {
		thumb := s.deriveThumbnail(*patch.ImageUrl)
		patch.ThumbnailUrl = &thumb
	}
	return s.store.UpdateProduct(ctx, id, patch)
}

// DeleteProduct removes the product, cascades to its images and best-effort
// removes their files. A repeat delete returns store.ErrNotFound.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	images, err := s.store.ListImagesByProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	for _, img := range images {
		s.removeAssetFiles(img.Url, img.ThumbnailUrl)
	}
	return nil
}

func (s *Service) removeAssetFiles(url, thumbURL string) {
	if url != "" && url != domain.PlaceholderImageUrl {
		s.blobs.Remove(url)
	}
	if thumbURL != "" && thumbURL != domain.PlaceholderThumbnailUrl && thumbURL != url {
		s.blobs.Remove(thumbURL)
	}
}

// ProductPopup assembles the product edit popup payload: the primary (or
// first) image plus the urls of the remaining ones.
func (s *Service) ProductPopup(ctx context.Context, id int64) (*domain.PopupResponse, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := s.store.ListImagesByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	var main *domain.ProductImage
	for i := range images {
		if images[i].IsPrimary {
			main = &images[i]
			break
		}
	}
	if main == nil && len(images) > 0 {
		main = &images[0]
	}

	detail := domain.ProductPopupDetail{
		Title:       "Product: " + p.Name,
		ProductId:   p.ID,
		Description: p.Description,
		Price:       p.Price,
	}
	if main != nil {
		detail.ImageUrl = main.Url
		detail.ThumbnailUrl = main.ThumbnailUrl
	} else {
		detail.ImageUrl = p.ImageUrl
		detail.ThumbnailUrl = p.ThumbnailUrl
	}
	for i := range images {
		if main != nil && images[i].ID == main.ID {
			continue
		}
		detail.AdditionalImages = append(detail.AdditionalImages, images[i].Url)
	}

	return &domain.PopupResponse{
		PopupId:   s.popupID(),
		PopupType: "product",
		Data:      detail,
	}, nil
}

// Gallery lists all images of a product for the gallery grid popup.
func (s *Service) Gallery(ctx context.Context, productID int64) (*domain.GalleryResponse, error) {
	images, err := s.store.ListImagesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := &domain.GalleryResponse{ProductId: productID, Images: make([]domain.GalleryImage, 0, len(images))}
	for _, img := range images {
		resp.Images = append(resp.Images, domain.GalleryImage{
			ID:           img.ID,
			Url:          img.Url,
			ThumbnailUrl: img.ThumbnailUrl,
			AltText:      img.AltText,
			ImageType:    img.ImageType,
			IsPrimary:    img.IsPrimary,
		})
	}
	return resp, nil
}

// ImagePopup assembles the image detail popup payload.
func (s *Service) ImagePopup(ctx context.Context, imageID int64) (*domain.PopupResponse, error) {
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetProduct(ctx, img.ProductId)
	if err != nil {
		return nil, err
	}
	return &domain.PopupResponse{
		PopupId:   s.popupID(),
		PopupType: "image",
		Data: domain.ImagePopupDetail{
			Title:     p.Name + " - Image",
			ProductId: p.ID,
			ImageId:   img.ID,
			ImageUrl:  img.Url,
			AltText:   img.AltText,
			ImageType: img.ImageType,
			IsPrimary: img.IsPrimary,
		},
	}, nil
}

// ImageUpload carries an uploaded file and its metadata.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
	AltText     string
	ImageType   string
	IsPrimary   bool
}

// UploadImage stores the file, derives its thumbnail and creates the image
// record. When IsPrimary is set the previous primary is cleared atomically by
// the store.
func (s *Service) UploadImage(ctx context.Context, productID int64, up ImageUpload) (*domain.ProductImage, error) {
	if !strings.HasPrefix(up.ContentType, "image/") {
		return nil, invalidf("file", "uploaded file is not an image")
	}
	if up.ImageType == "" {
		up.ImageType = domain.ImageTypeMain
	}
	if !domain.ValidImageType(up.ImageType) {
		return nil, invalidf("image_type", "must be one of main, detail, package, lifestyle")
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	url, err := s.blobs.SaveImage(productID, up.Filename, up.Content)
	if err != nil {
		return nil, err
	}
	thumbURL := s.deriveThumbnail(url)

	img, err := s.store.CreateImage(ctx, store.ImageCreate{
		ProductId:    productID,
		Url:          url,
		ThumbnailUrl: thumbURL,
		AltText:      up.AltText,
		ImageType:    up.ImageType,
		IsPrimary:    up.IsPrimary,
	})
	if err != nil {
		s.removeAssetFiles(url, thumbURL)
		return nil, err
	}
	return img, nil
}

// imageOf fetches an image and verifies it belongs to the product. An image
// owned by another product is indistinguishable from a missing one.
func (s *Service) imageOf(ctx context.Context, productID, imageID int64) (*domain.ProductImage, error) {
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.ProductId != productID {
		return nil, store.ErrNotFound
	}
	return img, nil
}

func (s *Service) UpdateImage(ctx context.Context, productID, imageID int64, patch store.ImagePatch) (*domain.ProductImage, error) {
	if patch.ImageType != nil && !domain.ValidImageType(*patch.ImageType) {
		return nil, invalidf("image_type", "must be one of main, detail, package, lifestyle")
	}
	if _, err := s.imageOf(ctx, productID, imageID); err != nil {
		return nil, err
	}
	return s.store.UpdateImage(ctx, imageID, patch)
}

// DeleteImage removes the record and its files. When the deleted image was
// primary, the first remaining image is promoted so grid display keeps a
// resolvable primary.
func (s *Service) DeleteImage(ctx context.Context, productID, imageID int64) error {
	img, err := s.imageOf(ctx, productID, imageID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	s.removeAssetFiles(img.Url, img.ThumbnailUrl)

	if img.IsPrimary {
		remaining, err := s.store.ListImagesByProduct(ctx, productID)
		if err == nil && len(remaining) > 0 {
			if err := s.store.SetPrimaryImage(ctx, productID, remaining[0].ID); err != nil {
				zap.L().Warn("failed to promote replacement primary image",
					zap.Int64("product_id", productID), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *Service) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	return s.store.SetPrimaryImage(ctx, productID, imageID)
}

// SavePopup applies a combined popup save: product changes plus keyed image
// changes. Everything is validated first, then the whole set is handed to the
// store as one atomic patch, so a failing or vanished piece leaves no
// half-applied state behind.
func (s *Service) SavePopup(ctx context.Context, productID int64, req domain.SaveRequest) (*domain.SaveResult, error) {
	patch := store.GalleryPatch{Images: make(map[int64]store.ImagePatch, len(req.ImageChanges))}

	if req.ProductChanges != nil {
		pc := req.ProductChanges
		if err := validateProductFields(pc.Name, pc.Description, pc.Price); err != nil {
			return nil, err
		}
		pp := store.ProductPatch{Name: pc.Name, Description: pc.Description, Price: pc.Price}
		if !pp.Empty() {
			patch.Product = &pp
		}
	}

	for key, changes := range req.ImageChanges {
		imageID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, invalidf("image_changes", "invalid image id %q", key)
		}
		if changes.ImageType != nil && !domain.ValidImageType(*changes.ImageType) {
			return nil, invalidf("image_changes", "image %s: image_type must be one of main, detail, package, lifestyle", key)
		}
		ip := store.ImagePatch{
			AltText:   changes.AltText,
			ImageType: changes.ImageType,
			IsPrimary: changes.IsPrimary,
		}
		if ip.AltText == nil && ip.ImageType == nil && ip.IsPrimary == nil {
			continue
		}
		patch.Images[imageID] = ip
	}

	updated, err := s.store.ApplyGalleryPatch(ctx, productID, patch)
	if err != nil {
		return nil, err
	}
	return &domain.SaveResult{
		Message:        "Popup changes saved successfully",
		ProductUpdated: patch.Product != nil,
		ImagesUpdated:  len(patch.Images) > 0,
		ProductId:      productID,
		Product:        updated,
	}, nil
}
