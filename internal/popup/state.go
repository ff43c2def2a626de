// Package popup implements the client-side popup controller: an explicit
// state machine over the gallery API. The visible popup is a projection of
// State; rendering never drives transitions.
package popup

import "github.com/openmerch/gallery/internal/domain"

// Kind identifies which popup surface is visible.
type Kind int

const (
	KindNone Kind = iota
	KindProductEdit
	KindImageDetail
	KindGalleryGrid
	KindUploadPanel
)

func (k Kind) String() string {
	switch k {
	case KindProductEdit:
		return "product-edit"
	case KindImageDetail:
		return "image-detail"
	case KindGalleryGrid:
		return "gallery-grid"
	case KindUploadPanel:
		return "upload-panel"
	}
	return "none"
}

// Phase tracks the request lifecycle of the visible popup.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	}
	return "idle"
}

// State is the full, immutable controller state. Epoch identifies the popup
// generation: every open or close bumps it, and completion callbacks carrying
// an older epoch are discarded instead of applied.
type State struct {
	Kind     Kind
	TargetID int64
	Phase    Phase
	Epoch    uint64

	Product *domain.ProductPopupDetail
	Gallery *domain.GalleryResponse
	Image   *domain.ImagePopupDetail
}

// Stable reports whether the state can serve as a rollback point: the
// controller never rolls back into a loading phase.
func (s State) Stable() bool {
	return s.Phase != PhaseLoading
}

// opened returns the loading state entered when a popup of the given kind is
// requested for a target.
func opened(kind Kind, targetID int64, epoch uint64) State {
	return State{Kind: kind, TargetID: targetID, Phase: PhaseLoading, Epoch: epoch}
}

// closed returns the empty state for a new epoch.
func closed(epoch uint64) State {
	return State{Kind: KindNone, Phase: PhaseIdle, Epoch: epoch}
}
