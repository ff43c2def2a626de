package gallery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BlobStore writes uploaded assets under the static directory and maps
// between served /static urls and filesystem paths.
type BlobStore struct {
	staticDir string
}

func NewBlobStore(staticDir string) *BlobStore {
	return &BlobStore{staticDir: staticDir}
}

func (b *BlobStore) imagesDir() string {
	return filepath.Join(b.staticDir, "images")
}

func (b *BlobStore) thumbnailsDir() string {
	return filepath.Join(b.staticDir, "images", "thumbnails")
}

// SaveImage stores an uploaded file as images/<productID>_<uuid><ext> and
// returns its served url.
func (b *BlobStore) SaveImage(productID int64, filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%d_%s%s", productID, uuid.NewString(), ext)

	if err := os.MkdirAll(b.imagesDir(), 0o755); err != nil {
		return "", errors.Wrap(err, "create images dir")
	}
	path := filepath.Join(b.imagesDir(), name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "write image file")
	}
	return "/static/images/" + name, nil
}

// PathFor maps a served /static url back to the filesystem path. Urls outside
// /static resolve to an empty path.
func (b *BlobStore) PathFor(url string) string {
	rel, ok := strings.CutPrefix(url, "/static/")
	if !ok {
		return ""
	}
	return filepath.Join(b.staticDir, filepath.FromSlash(rel))
}

// ThumbnailUrlFor returns the conventional thumbnail url for an original
// image url.
func (b *BlobStore) ThumbnailUrlFor(imageURL string) string {
	return "/static/images/thumbnails/" + filepath.Base(imageURL)
}

// Remove deletes the file backing a served url. Best effort: a missing file
// is not an error.
func (b *BlobStore) Remove(url string) {
	path := b.PathFor(url)
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("failed to remove asset file", zap.String("url", url), zap.Error(err))
	}
}
