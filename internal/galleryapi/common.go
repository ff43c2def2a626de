// Package galleryapi exposes the REST surface: product CRUD, image listing
// and the popup endpoints driving the client-side controller.
package galleryapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/openmerch/gallery/internal/gallery"
	"github.com/openmerch/gallery/internal/store"
	"github.com/openmerch/gallery/internal/webserver"
)

const serviceContextKey = "gallery_service"

// InitRouter wires the service into the request context and registers all
// API routes.
func InitRouter(svc *gallery.Service) {
	webserver.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(serviceContextKey, svc)
			return next(c)
		}
	})
	registerProductRoutes()
	registerImageRoutes()
	registerPopupRoutes()
}

// GetService retrieves the gallery service from the request context.
func GetService(c echo.Context) *gallery.Service {
	return c.Get(serviceContextKey).(*gallery.Service)
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, errorBody{Code: code, Message: message, Detail: detail})
}

// failErr maps service errors onto their response-status equivalents.
func failErr(c echo.Context, err error) error {
	var verr *gallery.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case errors.As(err, &verr):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", verr.Error(), verr.Field)
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed", err.Error())
	}
}

// failValidation renders a validator error naming the first offending field.
func failValidation(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid field "+fe.Field()+": failed "+fe.Tag()+" validation", fe.Field())
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

func paramID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
