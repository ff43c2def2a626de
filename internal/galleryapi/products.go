package galleryapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openmerch/gallery/internal/store"
	"github.com/openmerch/gallery/internal/webserver"
)

type productPayload struct {
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Description  string  `json:"description" validate:"required,max=2000"`
	Price        float64 `json:"price" validate:"required,gt=0"`
	ImageUrl     string  `json:"image_url"`
	ThumbnailUrl string  `json:"thumbnail_url"`
}

// productUpdatePayload relaxes validation for partial updates. Pointer fields
// keep "absent" distinguishable from a provided zero value.
type productUpdatePayload struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=2000"`
	Price        *float64 `json:"price" validate:"omitempty,gt=0"`
	ImageUrl     *string  `json:"image_url"`
	ThumbnailUrl *string  `json:"thumbnail_url"`
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	products, err := GetService(c).ListProducts(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, products)
}

func getProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := GetService(c).GetProduct(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return failValidation(c, err)
	}

	p, err := GetService(c).CreateProduct(c.Request().Context(), store.ProductCreate{
		Name:         payload.Name,
		Description:  payload.Description,
		Price:        payload.Price,
		ImageUrl:     payload.ImageUrl,
		ThumbnailUrl: payload.ThumbnailUrl,
	})
	if err != nil {
		return failErr(c, err)
	}
	return created(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload productUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return failValidation(c, err)
	}

	p, err := GetService(c).UpdateProduct(c.Request().Context(), id, store.ProductPatch{
		Name:         payload.Name,
		Description:  payload.Description,
		Price:        payload.Price,
		ImageUrl:     payload.ImageUrl,
		ThumbnailUrl: payload.ThumbnailUrl,
	})
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetService(c).DeleteProduct(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"message": "Product deleted successfully", "id": id})
}
