package galleryapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openmerch/gallery/internal/webserver"
)

// registerImageRoutes registers the flat image lookup endpoints
func registerImageRoutes() {
	webserver.ApiGET("/images/product/:id", listProductImages)
	webserver.ApiGET("/images/:id", getImage)
}

func listProductImages(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	resp, err := GetService(c).Gallery(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, resp.Images)
}

func getImage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID", nil)
	}
	popup, err := GetService(c).ImagePopup(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, popup.Data)
}
