package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"omifemcuts/pkg/domain"
)

// minimal 1x1 PNG header
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func TestSniffImage(t *testing.T) {
	ct, r, err := SniffImage(bytes.NewReader(pngBytes))
	if err != nil || ct != "image/png" {
		t.Fatalf("sniff png: ct=%q err=%v", ct, err)
	}
	all, _ := io.ReadAll(r)
	if !bytes.Equal(all, pngBytes) {
		t.Fatalf("sniffed reader must replay the full content")
	}
	if _, _, err := SniffImage(strings.NewReader("%PDF-1.7 not an image")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("pdf err = %v, want ErrUnsupportedImage", err)
	}
}

func TestMinioImageHostUploadAndDelete(t *testing.T) {
	objs := newMemObjects()
	h := NewMinioImageHost(objs, "https://cdn.omifemcuts.com/styles-bucket/")

	img, err := h.Upload(context.Background(), "Ankara.PNG", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(img.Key, "styles/") || !strings.HasSuffix(img.Key, ".png") {
		t.Fatalf("unexpected key %q", img.Key)
	}
	if img.URL != "https://cdn.omifemcuts.com/styles-bucket/"+img.Key {
		t.Fatalf("unexpected url %q", img.URL)
	}
	if objs.types[img.Key] != "image/png" {
		t.Fatalf("content type not stored")
	}

	if err := h.Delete(context.Background(), img.URL); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := objs.objects[img.Key]; ok {
		t.Fatalf("object still present after delete")
	}
	if err := h.Delete(context.Background(), "https://elsewhere.example/x.png"); !errors.Is(err, ErrNotHosted) {
		t.Fatalf("foreign url err = %v", err)
	}
}

func TestImageExtFallsBackToContentType(t *testing.T) {
	if got := imageExt("blob", "image/jpeg"); got != ".jpg" {
		t.Fatalf("ext = %q, want .jpg", got)
	}
}

func TestPlaceholderImageHost(t *testing.T) {
	img, err := PlaceholderImageHost{}.Upload(context.Background(), "a.png", bytes.NewReader(pngBytes), 0, "image/png")
	if err != nil || img.URL != domain.PlaceholderImageURL {
		t.Fatalf("placeholder upload = %+v err=%v", img, err)
	}
}
