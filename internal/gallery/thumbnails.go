package gallery

import (
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Thumbnail box size in pixels, matching the served grid cell.
const thumbnailSize = 200

// Thumbnailer derives thumbnails from original assets. Derivation is
// deterministic: the thumbnail of images/<name> is always
// images/thumbnails/<name>.
type Thumbnailer struct {
	blobs *BlobStore
}

func NewThumbnailer(blobs *BlobStore) *Thumbnailer {
	return &Thumbnailer{blobs: blobs}
}

// Derive builds the thumbnail for an original image url and returns the
// thumbnail url. Callers treat a failure as transient and fall back to the
// original url.
func (t *Thumbnailer) Derive(imageURL string) (string, error) {
	srcPath := t.blobs.PathFor(imageURL)
	if srcPath == "" {
		return "", errors.Errorf("image url %q is not under /static", imageURL)
	}

	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", errors.Wrap(err, "open original image")
	}

	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	dstDir := t.blobs.thumbnailsDir()
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create thumbnails dir")
	}
	dstPath := filepath.Join(dstDir, filepath.Base(srcPath))
	if err := imaging.Save(thumb, dstPath); err != nil {
		return "", errors.Wrap(err, "save thumbnail")
	}
	return t.blobs.ThumbnailUrlFor(imageURL), nil
}

// Exists reports whether the thumbnail file for an original url is present.
func (t *Thumbnailer) Exists(imageURL string) bool {
	path := t.blobs.PathFor(t.blobs.ThumbnailUrlFor(imageURL))
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
