package domain

// ProductChanges is the partial product edit carried by a combined popup
// save. Nil fields were not touched in the popup.
type ProductChanges struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// ImageChanges is a partial image edit keyed by image id in SaveRequest.
type ImageChanges struct {
	AltText   *string `json:"alt_text"`
	ImageType *string `json:"image_type"`
	IsPrimary *bool   `json:"is_primary"`
}

// SaveRequest is the combined popup save body: product fields and per-image
// edits applied as one unit.
type SaveRequest struct {
	ProductChanges *ProductChanges         `json:"product_changes"`
	ImageChanges   map[string]ImageChanges `json:"image_changes"`
}

// SaveResult reports what a combined save touched.
type SaveResult struct {
	Message        string   `json:"message"`
	ProductUpdated bool     `json:"product_updated"`
	ImagesUpdated  bool     `json:"images_updated"`
	ProductId      int64    `json:"product_id"`
	Product        *Product `json:"product,omitempty"`
}
