package popup

import (
	"context"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TopicNotify is the event bus topic user-facing notifications are published
// on. Subscribers receive a single Notification argument.
const TopicNotify = "popup:notify"

type Notification struct {
	Title   string
	Message string
	Level   string // "success" or "error"
}

// ErrSaveInFlight rejects a duplicate mutating trigger while a save has not
// settled. The UI maps it to a disabled control, not an error dialog.
var ErrSaveInFlight = errors.New("a save request is already in flight")

var errNoPopup = errors.New("no popup open for this action")

// API is the gallery endpoint surface the controller talks to.
type API interface {
	ProductPopup(ctx context.Context, productID int64) (*domain.ProductPopupDetail, error)
	Gallery(ctx context.Context, productID int64) (*domain.GalleryResponse, error)
	ImagePopup(ctx context.Context, imageID int64) (*domain.ImagePopupDetail, error)
	UploadImage(ctx context.Context, productID int64, req UploadRequest) error
	SavePopup(ctx context.Context, productID int64, req domain.SaveRequest) (*domain.SaveResult, error)
}

// UploadRequest is the multipart upload submitted from the upload panel.
type UploadRequest struct {
	Filename    string
	ContentType string
	Content     []byte
	AltText     string
	ImageType   string
	IsPrimary   bool
}

// Controller is the single popup controller instance of a client. All
// methods are safe for concurrent use; suspension happens only at network
// boundaries, and a response belonging to an older popup generation is
// discarded rather than applied.
type Controller struct {
	mu     sync.Mutex
	st     State
	epoch  uint64
	saving bool

	api API
	bus EventBus.Bus
}

func NewController(api API, bus EventBus.Bus) *Controller {
	if bus == nil {
		bus = EventBus.New()
	}
	c := &Controller{api: api, bus: bus}
	c.st = closed(c.epoch)
	return c
}

// Bus exposes the notification bus for subscribers (the rendering layer).
func (c *Controller) Bus() EventBus.Bus {
	return c.bus
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

func (c *Controller) notify(level, title, message string) {
	c.bus.Publish(TopicNotify, Notification{Title: title, Message: message, Level: level})
}

// begin snapshots the prior stable state and enters a loading state for a new
// epoch. The returned epoch tags the in-flight request.
func (c *Controller) begin(kind Kind, targetID int64) (prior State, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prior = c.st
	c.epoch++
	epoch = c.epoch
	c.st = opened(kind, targetID, epoch)
	return prior, epoch
}

// settle applies the outcome of a network call unless the popup generation
// moved on while the request was in flight. Stale outcomes are dropped
// entirely: no state change, no notification.
func (c *Controller) settle(epoch uint64, prior State, err error, apply func(*State)) (stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Epoch != epoch {
		return true
	}
	if err != nil {
		// Roll back to the last stable surface so the controller is never
		// stuck in loading.
		restored := prior
		if !restored.Stable() {
			restored = closed(epoch)
		}
		restored.Epoch = epoch
		c.st = restored
		return false
	}
	next := c.st
	next.Phase = PhaseSuccess
	apply(&next)
	c.st = next
	return false
}

// Close tears the popup down synchronously (close button, Escape, backdrop
// click). In-flight requests are not cancelled; their completions become
// stale and are suppressed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.st = closed(c.epoch)
}

// OpenProduct opens the product-edit popup and fetches its data.
func (c *Controller) OpenProduct(ctx context.Context, productID int64) error {
	prior, epoch := c.begin(KindProductEdit, productID)

	detail, err := c.api.ProductPopup(ctx, productID)

	if stale := c.settle(epoch, prior, err, func(s *State) {
		s.Product = detail
	}); stale {
		return nil
	}
	if err != nil {
		c.notify("error", "Failed to load product", err.Error())
		return err
	}
	return nil
}

// ViewAllImages moves product-edit to the gallery grid. Both the product
// detail and the gallery listing are fetched; if either fails the whole
// transition fails and no partial grid is shown.
func (c *Controller) ViewAllImages(ctx context.Context) error {
	c.mu.Lock()
	if c.st.Kind != KindProductEdit {
		c.mu.Unlock()
		return errNoPopup
	}
	productID := c.st.TargetID
	c.mu.Unlock()

	prior, epoch := c.begin(KindGalleryGrid, productID)

	var detail *domain.ProductPopupDetail
	var gal *domain.GalleryResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = c.api.ProductPopup(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		gal, err = c.api.Gallery(gctx, productID)
		return err
	})
	err := g.Wait()

	if stale := c.settle(epoch, prior, err, func(s *State) {
		s.Product = detail
		s.Gallery = gal
	}); stale {
		return nil
	}
	if err != nil {
		c.notify("error", "Failed to load gallery", err.Error())
		return err
	}
	return nil
}

// OpenImage moves the gallery grid to the image-detail popup.
func (c *Controller) OpenImage(ctx context.Context, imageID int64) error {
	c.mu.Lock()
	if c.st.Kind != KindGalleryGrid {
		c.mu.Unlock()
		return errNoPopup
	}
	gallery := c.st.Gallery
	c.mu.Unlock()

	prior, epoch := c.begin(KindImageDetail, imageID)

	detail, err := c.api.ImagePopup(ctx, imageID)

	if stale := c.settle(epoch, prior, err, func(s *State) {
		s.Image = detail
		s.Gallery = gallery
	}); stale {
		return nil
	}
	if err != nil {
		c.notify("error", "Failed to load image", err.Error())
		return err
	}
	return nil
}

// BackToGallery returns from image-detail to the gallery grid. The gallery is
// re-fetched rather than reused: an image edit may have changed the primary
// flag ordering.
func (c *Controller) BackToGallery(ctx context.Context) error {
	c.mu.Lock()
	if c.st.Kind != KindImageDetail || c.st.Image == nil {
		c.mu.Unlock()
		return errNoPopup
	}
	productID := c.st.Image.ProductId
	product := c.st.Product
	c.mu.Unlock()

	prior, epoch := c.begin(KindGalleryGrid, productID)

	gal, err := c.api.Gallery(ctx, productID)

	if stale := c.settle(epoch, prior, err, func(s *State) {
		s.Gallery = gal
		s.Product = product
	}); stale {
		return nil
	}
	if err != nil {
		c.notify("error", "Failed to load gallery", err.Error())
		return err
	}
	return nil
}

// OpenUpload shows the upload panel. Purely local until the form is
// submitted.
func (c *Controller) OpenUpload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Kind != KindGalleryGrid {
		return errNoPopup
	}
	c.epoch++
	next := c.st
	next.Kind = KindUploadPanel
	next.Phase = PhaseIdle
	next.Epoch = c.epoch
	c.st = next
	return nil
}

// CancelUpload returns to the gallery grid without any network traffic.
func (c *Controller) CancelUpload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Kind != KindUploadPanel {
		return errNoPopup
	}
	c.epoch++
	next := c.st
	next.Kind = KindGalleryGrid
	next.Phase = PhaseSuccess
	next.Epoch = c.epoch
	c.st = next
	return nil
}

// SubmitUpload performs the upload round-trip and, on success, re-enters the
// gallery grid with a fresh listing.
func (c *Controller) SubmitUpload(ctx context.Context, req UploadRequest) error {
	c.mu.Lock()
	if c.st.Kind != KindUploadPanel {
		c.mu.Unlock()
		return errNoPopup
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	c.saving = true
	productID := c.st.TargetID
	product := c.st.Product
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.saving = false
		c.mu.Unlock()
	}()

	prior, epoch := c.begin(KindUploadPanel, productID)

	err := c.api.UploadImage(ctx, productID, req)
	var gal *domain.GalleryResponse
	if err == nil {
		gal, err = c.api.Gallery(ctx, productID)
	}

	if stale := c.settle(epoch, prior, err, func(s *State) {
		s.Kind = KindGalleryGrid
		s.TargetID = productID
		s.Gallery = gal
		s.Product = product
	}); stale {
		return nil
	}
	if err != nil {
		c.notify("error", "Upload failed", err.Error())
		return err
	}
	c.notify("success", "Image uploaded", "The image was added to the gallery")
	return nil
}

// Save applies the combined popup save. An in-flight save disables the
// trigger: duplicate calls fail fast with ErrSaveInFlight until the first
// settles. On success the popup closes after a success notification.
func (c *Controller) Save(ctx context.Context, req domain.SaveRequest) error {
	c.mu.Lock()
	if c.st.Kind == KindNone {
		c.mu.Unlock()
		return errNoPopup
	}
	if c.saving {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	c.saving = true
	productID := c.productTarget()
	epoch := c.st.Epoch
	prior := c.st
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.saving = false
		c.mu.Unlock()
	}()

	_, err := c.api.SavePopup(ctx, productID, req)

	c.mu.Lock()
	if c.st.Epoch != epoch {
		// Popup moved on while saving; drop the outcome.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		restored := prior
		if !restored.Stable() {
			restored = closed(epoch)
		}
		c.st = restored
		c.mu.Unlock()
		c.notify("error", "Save failed", err.Error())
		return err
	}
	c.epoch++
	c.st = closed(c.epoch)
	c.mu.Unlock()
	c.notify("success", "Changes saved", "Your changes have been saved")
	return nil
}

// productTarget resolves the product id the visible popup concerns. Callers
// hold c.mu.
func (c *Controller) productTarget() int64 {
	switch c.st.Kind {
	case KindImageDetail:
		if c.st.Image != nil {
			return c.st.Image.ProductId
		}
	case KindProductEdit, KindGalleryGrid, KindUploadPanel:
		return c.st.TargetID
	}
	return c.st.TargetID
}
