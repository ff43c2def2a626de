package popup

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound reports whether the error is the server's 404 signal, meaning the
// entity vanished rather than a transient failure.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Client talks to the gallery API over HTTP.
type Client struct {
	base    string
	timeout time.Duration
}

var _ API = (*Client)(nil)

func NewClient(base string) *Client {
	return &Client{base: base, timeout: 15 * time.Second}
}

func (cl *Client) url(format string, args ...interface{}) string {
	return cl.base + fmt.Sprintf(format, args...)
}

// decode interprets the response body: the expected payload on 2xx, the
// error envelope otherwise.
func decode(code int, body []byte, out interface{}) error {
	if code >= 200 && code < 300 {
		if out == nil {
			return nil
		}
		return errors.Wrap(json.Unmarshal(body, out), "decode response")
	}
	apiErr := &APIError{Status: code}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "HTTP_ERROR"
		apiErr.Message = fmt.Sprintf("unexpected status %d", code)
	}
	return apiErr
}

func (cl *Client) get(ctx context.Context, url string, out interface{}) error {
	var code int
	var body []byte
	err := gout.GET(url).
		WithContext(ctx).
		SetTimeout(cl.timeout).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	return decode(code, body, out)
}

func (cl *Client) ProductPopup(ctx context.Context, productID int64) (*domain.ProductPopupDetail, error) {
	var resp struct {
		PopupId   string                    `json:"popup_id"`
		PopupType string                    `json:"popup_type"`
		Data      domain.ProductPopupDetail `json:"data"`
	}
	if err := cl.get(ctx, cl.url("/api/popups/product/%d", productID), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Products lists the catalog for the grid view.
func (cl *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := cl.get(ctx, cl.base+"/api/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (cl *Client) Gallery(ctx context.Context, productID int64) (*domain.GalleryResponse, error) {
	var resp domain.GalleryResponse
	if err := cl.get(ctx, cl.url("/api/popups/product/%d/gallery", productID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (cl *Client) ImagePopup(ctx context.Context, imageID int64) (*domain.ImagePopupDetail, error) {
	var resp struct {
		PopupId   string                  `json:"popup_id"`
		PopupType string                  `json:"popup_type"`
		Data      domain.ImagePopupDetail `json:"data"`
	}
	if err := cl.get(ctx, cl.url("/api/popups/image/%d", imageID), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (cl *Client) UploadImage(ctx context.Context, productID int64, req UploadRequest) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	// The file part must carry the real content type; the server rejects
	// parts declared as application/octet-stream.
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Filename))
	hdr.Set("Content-Type", req.ContentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return errors.Wrap(err, "build multipart body")
	}
	if _, err := part.Write(req.Content); err != nil {
		return errors.Wrap(err, "build multipart body")
	}
	_ = w.WriteField("alt_text", req.AltText)
	_ = w.WriteField("image_type", req.ImageType)
	_ = w.WriteField("is_primary", fmt.Sprintf("%t", req.IsPrimary))
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "build multipart body")
	}

	var code int
	var body []byte
	err = gout.POST(cl.url("/api/popups/product/%d/image", productID)).
		WithContext(ctx).
		SetTimeout(cl.timeout).
		SetHeader(gout.H{"Content-Type": w.FormDataContentType()}).
		SetBody(&buf).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	return decode(code, body, nil)
}

func (cl *Client) SavePopup(ctx context.Context, productID int64, req domain.SaveRequest) (*domain.SaveResult, error) {
	var code int
	var body []byte
	err := gout.PUT(cl.url("/api/popups/product/%d/save", productID)).
		WithContext(ctx).
		SetTimeout(cl.timeout).
		SetJSON(req).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	var result domain.SaveResult
	if err := decode(code, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
