package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ImageRef is what the frontend gets back after an upload and what it
// embeds into post content.
type ImageRef struct {
	Name string `json:"img_name"`
	URL  string `json:"img_url"`
}

//go:generate mockgen -source=images.go -destination=store_mock.go -package=images

// Store is a remote object store for blog images. Implementations talk
// to an external service, never to the local disk.
type Store interface {
	// Upload streams the image bytes to the backend under a freshly
	// derived object name and returns its public reference.
	Upload(ctx context.Context, r io.Reader, originalFilename string) (ImageRef, error)
	// Delete removes the named objects, best effort per name where the
	// backend allows it. A non-nil error is a *DeleteError carrying the
	// names that remain in the store.
	Delete(ctx context.Context, names []string) error
}

var ErrBackendUnavailable = errors.New("image store backend unavailable")

// DeleteError reports a partially or fully failed batch deletion.
type DeleteError struct {
	// Failed holds the object names still present in the store
	Failed []string

	err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete images [%s]: %s", strings.Join(e.Failed, ", "), e.err)
}

func (e *DeleteError) Unwrap() error {
	return e.err
}

// objectName derives the stored name from the upload timestamp while
// keeping the original extension, e.g. img_1716899245000.png
func objectName(originalFilename string, now time.Time) string {
	return fmt.Sprintf("img_%d%s", now.UnixMilli(), filepath.Ext(originalFilename))
}
