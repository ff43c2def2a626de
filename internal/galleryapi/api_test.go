package galleryapi

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/openmerch/gallery/config"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/openmerch/gallery/internal/gallery"
	"github.com/openmerch/gallery/internal/store"
	"github.com/openmerch/gallery/internal/webserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testAPI struct {
	ws    *webserver.WebServer
	store *store.MemStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	cfg.Storage.StaticDir = t.TempDir()

	st := store.NewMemStore()
	svc, err := gallery.NewService(st, gallery.NewBlobStore(cfg.Storage.StaticDir))
	require.NoError(t, err)

	ws := webserver.Init(cfg)
	InitRouter(svc)
	return &testAPI{ws: ws, store: st}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echoContentType, echoJSONType)
	rec := httptest.NewRecorder()
	webserver.Echo().ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSONType    = "application/json"
)

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func createProductReq(t *testing.T, a *testAPI, name string) *domain.Product {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name":        name,
		"description": "desc for " + name,
		"price":       10.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p domain.Product
	decodeInto(t, rec, &p)
	return &p
}

func TestHealthRoot(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestProductCrud(t *testing.T) {
	a := newTestAPI(t)

	p := createProductReq(t, a, "Mug")
	assert.NotZero(t, p.ID)
	assert.Equal(t, domain.PlaceholderImageUrl, p.ImageUrl)

	t.Run("list", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/products", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var products []domain.Product
		decodeInto(t, rec, &products)
		require.Len(t, products, 1)
		assert.Equal(t, "Mug", products[0].Name)
	})

	t.Run("get", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Product
		decodeInto(t, rec, &got)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/products/9999", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		var body map[string]interface{}
		decodeInto(t, rec, &body)
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	t.Run("get malformed id", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/products/abc", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]interface{}
		decodeInto(t, rec, &body)
		assert.Equal(t, "INVALID_ID", body["code"])
	})

	t.Run("partial update", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), map[string]interface{}{
			"price": 15.5,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Product
		decodeInto(t, rec, &got)
		assert.Equal(t, 15.5, got.Price)
		assert.Equal(t, "Mug", got.Name)
	})

	t.Run("update rejects zero price", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), map[string]interface{}{
			"price": 0,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]interface{}
		decodeInto(t, rec, &body)
		assert.Equal(t, "INVALID_REQUEST", body["code"])
		assert.Equal(t, "price", body["detail"])
	})

	t.Run("clearing image url falls back to placeholder", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), map[string]interface{}{
			"image_url":     "",
			"thumbnail_url": "",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.Product
		decodeInto(t, rec, &got)
		assert.Equal(t, domain.PlaceholderImageUrl, got.ImageUrl)
		assert.Equal(t, domain.PlaceholderThumbnailUrl, got.ThumbnailUrl)
	})

	t.Run("delete then repeat", func(t *testing.T) {
		rec := a.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateProductValidationErrors(t *testing.T) {
	a := newTestAPI(t)

	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"missing name", map[string]interface{}{"description": "d", "price": 1}, "name"},
		{"missing price", map[string]interface{}{"name": "n", "description": "d"}, "price"},
		{"negative price", map[string]interface{}{"name": "n", "description": "d", "price": -2}, "price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/products", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]interface{}
			decodeInto(t, rec, &body)
			assert.Equal(t, "INVALID_REQUEST", body["code"])
			assert.Equal(t, tc.field, body["detail"])
		})
	}
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (a *testAPI) upload(t *testing.T, productID int64, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="test.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(pngFile(t))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/popups/product/%d/image", productID), &buf)
	req.Header.Set(echoContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	webserver.Echo().ServeHTTP(rec, req)
	return rec
}

func TestPopupEndpoints(t *testing.T) {
	a := newTestAPI(t)
	p := createProductReq(t, a, "Mug")

	rec := a.upload(t, p.ID, map[string]string{"alt_text": "front view", "is_primary": "true"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var img domain.ProductImage
	decodeInto(t, rec, &img)
	assert.True(t, img.IsPrimary)
	assert.Equal(t, "front view", img.AltText)
	assert.Equal(t, domain.ImageTypeMain, img.ImageType)

	t.Run("product popup", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/popups/product/%d", p.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			PopupId   string                    `json:"popup_id"`
			PopupType string                    `json:"popup_type"`
			Data      domain.ProductPopupDetail `json:"data"`
		}
		decodeInto(t, rec, &resp)
		assert.Equal(t, "product", resp.PopupType)
		assert.True(t, strings.HasPrefix(resp.PopupId, "popup-"))
		assert.Equal(t, "Product: Mug", resp.Data.Title)
		assert.Equal(t, img.Url, resp.Data.ImageUrl)
	})

	t.Run("gallery", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/popups/product/%d/gallery", p.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp domain.GalleryResponse
		decodeInto(t, rec, &resp)
		assert.Equal(t, p.ID, resp.ProductId)
		require.Len(t, resp.Images, 1)
		assert.Equal(t, img.ID, resp.Images[0].ID)
	})

	t.Run("image popup", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/popups/image/%d", img.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			PopupType string                  `json:"popup_type"`
			Data      domain.ImagePopupDetail `json:"data"`
		}
		decodeInto(t, rec, &resp)
		assert.Equal(t, "image", resp.PopupType)
		assert.Equal(t, "Mug - Image", resp.Data.Title)
	})

	t.Run("update image", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/popups/product/%d/image/%d", p.ID, img.ID),
			map[string]interface{}{"alt_text": "side view", "image_type": "detail"})
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			ImagesUpdated bool                `json:"images_updated"`
			Image         domain.ProductImage `json:"image"`
		}
		decodeInto(t, rec, &body)
		assert.True(t, body.ImagesUpdated)
		assert.Equal(t, "side view", body.Image.AltText)
		assert.Equal(t, domain.ImageTypeDetail, body.Image.ImageType)
	})

	t.Run("update image rejects unknown type", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/popups/product/%d/image/%d", p.ID, img.ID),
			map[string]interface{}{"image_type": "banner"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]interface{}
		decodeInto(t, rec, &body)
		assert.Equal(t, "INVALID_REQUEST", body["code"])
	})

	t.Run("update image of foreign product", func(t *testing.T) {
		other := createProductReq(t, a, "Plate")
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/popups/product/%d/image/%d", other.ID, img.ID),
			map[string]interface{}{"alt_text": "hijack"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("save popup", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/popups/product/%d/save", p.ID),
			map[string]interface{}{
				"product_changes": map[string]interface{}{"name": "Travel Mug"},
				"image_changes": map[string]interface{}{
					fmt.Sprintf("%d", img.ID): map[string]interface{}{"alt_text": "saved alt"},
				},
			})
		require.Equal(t, http.StatusOK, rec.Code)
		var result domain.SaveResult
		decodeInto(t, rec, &result)
		assert.True(t, result.ProductUpdated)
		assert.True(t, result.ImagesUpdated)
		require.NotNil(t, result.Product)
		assert.Equal(t, "Travel Mug", result.Product.Name)
	})

	t.Run("save rejects foreign image key", func(t *testing.T) {
		other := createProductReq(t, a, "Bowl")
		recUp := a.upload(t, other.ID, nil)
		require.Equal(t, http.StatusCreated, recUp.Code)
		var foreign domain.ProductImage
		decodeInto(t, recUp, &foreign)

		rec := a.do(t, http.MethodPut, fmt.Sprintf("/api/popups/product/%d/save", p.ID),
			map[string]interface{}{
				"product_changes": map[string]interface{}{"name": "should not stick"},
				"image_changes": map[string]interface{}{
					fmt.Sprintf("%d", foreign.ID): map[string]interface{}{"alt_text": "x"},
				},
			})
		require.Equal(t, http.StatusNotFound, rec.Code)

		got, err := a.store.GetProduct(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Travel Mug", got.Name)
	})

	t.Run("delete image", func(t *testing.T) {
		rec := a.do(t, http.MethodDelete, fmt.Sprintf("/api/popups/product/%d/image/%d", p.ID, img.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/popups/image/%d", img.ID), nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUploadMissingFile(t *testing.T) {
	a := newTestAPI(t)
	p := createProductReq(t, a, "Mug")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("alt_text", "no file"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/popups/product/%d/image", p.ID), &buf)
	req.Header.Set(echoContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	webserver.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decodeInto(t, rec, &body)
	assert.Equal(t, "file", body["detail"])
}

func TestUploadToMissingProduct(t *testing.T) {
	a := newTestAPI(t)
	rec := a.upload(t, 4242, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImageListingEndpoints(t *testing.T) {
	a := newTestAPI(t)
	p := createProductReq(t, a, "Mug")
	recUp := a.upload(t, p.ID, map[string]string{"image_type": "lifestyle"})
	require.Equal(t, http.StatusCreated, recUp.Code)
	var img domain.ProductImage
	decodeInto(t, recUp, &img)

	rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/images/product/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var images []domain.GalleryImage
	decodeInto(t, rec, &images)
	require.Len(t, images, 1)
	assert.Equal(t, domain.ImageTypeLifestyle, images[0].ImageType)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/images/%d", img.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail domain.ImagePopupDetail
	decodeInto(t, rec, &detail)
	assert.Equal(t, img.ID, detail.ImageId)
}
