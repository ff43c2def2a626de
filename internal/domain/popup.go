package domain

// Popup payload types. A popup id is a server-generated view token, unique per
// response, carried by the client only for correlation.

type PopupResponse struct {
	PopupId   string      `json:"popup_id"`
	PopupType string      `json:"popup_type"`
	Data      interface{} `json:"data"`
}

// ProductPopupDetail is the payload for the product edit popup.
type ProductPopupDetail struct {
	Title            string   `json:"title"`
	ProductId        int64    `json:"product_id"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	ImageUrl         string   `json:"image_url"`
	ThumbnailUrl     string   `json:"thumbnail_url"`
	AdditionalImages []string `json:"additional_images"`
}

// ImagePopupDetail is the payload for the image detail popup.
type ImagePopupDetail struct {
	Title     string `json:"title"`
	ProductId int64  `json:"product_id"`
	ImageId   int64  `json:"image_id"`
	ImageUrl  string `json:"image_url"`
	AltText   string `json:"alt_text"`
	ImageType string `json:"image_type"`
	IsPrimary bool   `json:"is_primary"`
}

// GalleryImage is one entry of the gallery grid listing.
type GalleryImage struct {
	ID           int64  `json:"id"`
	Url          string `json:"url"`
	ThumbnailUrl string `json:"thumbnail_url"`
	AltText      string `json:"alt_text"`
	ImageType    string `json:"image_type"`
	IsPrimary    bool   `json:"is_primary"`
}

// GalleryResponse is the full image listing for one product.
type GalleryResponse struct {
	ProductId int64          `json:"product_id"`
	Images    []GalleryImage `json:"images"`
}
