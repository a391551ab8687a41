package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const cloudinaryAPIBase = "https://api.cloudinary.com/v1_1"

// CloudinaryImageHost performs direct unsigned uploads with an upload preset.
type CloudinaryImageHost struct {
	apiBase    string
	cloudName  string
	preset     string
	folder     string
	httpClient *http.Client
}

type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
	Folder       string
	// APIBase overrides the Cloudinary endpoint, for tests.
	APIBase    string
	HTTPClient *http.Client
}

func NewCloudinaryImageHost(cfg CloudinaryConfig) (*CloudinaryImageHost, error) {
	if strings.TrimSpace(cfg.CloudName) == "" || strings.TrimSpace(cfg.UploadPreset) == "" {
		return nil, errors.New("cloudinary requires cloud name and upload preset")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = cloudinaryAPIBase
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &CloudinaryImageHost{
		apiBase:    base,
		cloudName:  strings.TrimSpace(cfg.CloudName),
		preset:     strings.TrimSpace(cfg.UploadPreset),
		folder:     strings.TrimSpace(cfg.Folder),
		httpClient: client,
	}, nil
}

func (h *CloudinaryImageHost) Name() string { return "cloudinary" }

func (h *CloudinaryImageHost) Upload(ctx context.Context, filename string, r io.Reader, _ int64, _ string) (Image, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeCloudinaryForm(mw, filename, r, h.preset, h.folder)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	endpoint := fmt.Sprintf("%s/%s/image/upload", h.apiBase, h.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return Image{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
		Error     *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return Image{}, fmt.Errorf("cloudinary upload: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if payload.Error != nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return Image{}, fmt.Errorf("cloudinary upload: status %d: %s", resp.StatusCode, msg)
	}
	if payload.SecureURL == "" {
		return Image{}, errors.New("cloudinary upload: response missing secure_url")
	}
	return Image{URL: payload.SecureURL, Key: payload.PublicID}, nil
}

func writeCloudinaryForm(mw *multipart.Writer, filename string, r io.Reader, preset, folder string) error {
	if err := mw.WriteField("upload_preset", preset); err != nil {
		return err
	}
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}

// Delete is unsupported: unsigned uploads cannot be destroyed without an API secret.
func (h *CloudinaryImageHost) Delete(context.Context, string) error {
	return ErrNotHosted
}
