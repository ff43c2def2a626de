package galleryapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/openmerch/gallery/internal/gallery"
	"github.com/openmerch/gallery/internal/store"
	"github.com/openmerch/gallery/internal/webserver"
	"github.com/spf13/cast"
)

type imageUpdatePayload struct {
	AltText   *string `json:"alt_text"`
	ImageType *string `json:"image_type" validate:"omitempty,oneof=main detail package lifestyle"`
	IsPrimary *bool   `json:"is_primary"`
}

// registerPopupRoutes registers the popup-facing endpoints
func registerPopupRoutes() {
	webserver.ApiGET("/popups/product/:id", getProductPopup)
	webserver.ApiGET("/popups/product/:id/gallery", getGallery)
	webserver.ApiGET("/popups/image/:id", getImagePopup)
	webserver.ApiPOST("/popups/product/:id/image", uploadImage)
	webserver.ApiPUT("/popups/product/:id/image/:imageId", updateImage)
	webserver.ApiDELETE("/popups/product/:id/image/:imageId", deleteImage)
	webserver.ApiPUT("/popups/product/:id/save", savePopup)
}

func getProductPopup(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	popup, err := GetService(c).ProductPopup(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, popup)
}

func getGallery(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	resp, err := GetService(c).Gallery(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, resp)
}

func getImagePopup(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID", nil)
	}
	popup, err := GetService(c).ImagePopup(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, popup)
}

func uploadImage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid field file: file is required", "file")
	}
	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read uploaded file", err.Error())
	}
	defer src.Close()

	img, err := GetService(c).UploadImage(c.Request().Context(), id, gallery.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     src,
		AltText:     c.FormValue("alt_text"),
		ImageType:   c.FormValue("image_type"),
		IsPrimary:   cast.ToBool(c.FormValue("is_primary")),
	})
	if err != nil {
		return failErr(c, err)
	}
	return created(c, img)
}

func updateImage(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	imageID, err := paramID(c, "imageId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID", nil)
	}

	var payload imageUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse image update", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return failValidation(c, err)
	}

	updated, err := GetService(c).UpdateImage(c.Request().Context(), productID, imageID, store.ImagePatch{
		AltText:   payload.AltText,
		ImageType: payload.ImageType,
		IsPrimary: payload.IsPrimary,
	})
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"images_updated": true, "image": updated})
}

func deleteImage(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	imageID, err := paramID(c, "imageId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID", nil)
	}
	if err := GetService(c).DeleteImage(c.Request().Context(), productID, imageID); err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"message": "Image deleted successfully"})
}

func savePopup(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var req domain.SaveRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse save request", err.Error())
	}

	result, err := GetService(c).SavePopup(c.Request().Context(), id, req)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, result)
}
