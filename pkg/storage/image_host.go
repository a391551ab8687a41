// Package storage hosts uploaded style images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"omifemcuts/pkg/domain"
)

var (
	ErrUnsupportedImage = errors.New("file must be an image")
	// ErrNotHosted is returned by Delete for URLs this host did not issue.
	ErrNotHosted = errors.New("image not hosted here")
)

// Image is a hosted upload.
type Image struct {
	URL string
	Key string
}

// ImageHost stores an uploaded image and returns a durable public URL.
type ImageHost interface {
	Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Image, error)
	Delete(ctx context.Context, imageURL string) error
	Name() string
}

// SniffImage checks the leading bytes of r and returns the detected image MIME
// type with a reader that still yields the whole content.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", nil, ErrUnsupportedImage
	}
	ct, _, _ := strings.Cut(mt.String(), ";")
	return ct, io.MultiReader(bytes.NewReader(head), r), nil
}

// MinioImageHost writes images under styles/<uuid><ext> and links them below publicBaseURL.
type MinioImageHost struct {
	store         ObjectStore
	publicBaseURL string
}

func NewMinioImageHost(store ObjectStore, publicBaseURL string) *MinioImageHost {
	return &MinioImageHost{store: store, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (h *MinioImageHost) Name() string { return "minio" }

func (h *MinioImageHost) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Image, error) {
	key := "styles/" + uuid.NewString() + imageExt(filename, contentType)
	if err := h.store.Put(ctx, key, r, size, contentType); err != nil {
		return Image{}, err
	}
	return Image{URL: h.publicBaseURL + "/" + key, Key: key}, nil
}

func (h *MinioImageHost) Delete(ctx context.Context, imageURL string) error {
	key, ok := strings.CutPrefix(imageURL, h.publicBaseURL+"/")
	if !ok || !strings.HasPrefix(key, "styles/") {
		return ErrNotHosted
	}
	return h.store.Delete(ctx, key)
}

func imageExt(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if ext := mimetype.Lookup(contentType); ext != nil {
		return ext.Extension()
	}
	return ""
}

// PlaceholderImageHost is used when no image host is configured. Uploads
// degrade to the catalog placeholder instead of failing.
type PlaceholderImageHost struct{}

func (PlaceholderImageHost) Name() string { return "placeholder" }

func (PlaceholderImageHost) Upload(ctx context.Context, filename string, r io.Reader, _ int64, _ string) (Image, error) {
	_, _ = io.Copy(io.Discard, r)
	slog.WarnContext(ctx, "image host not configured, using placeholder", "filename", filename)
	return Image{URL: domain.PlaceholderImageURL}, nil
}

func (PlaceholderImageHost) Delete(context.Context, string) error { return ErrNotHosted }
