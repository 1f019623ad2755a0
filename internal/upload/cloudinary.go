// Package upload resolves local image references into hosted URLs.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// Cloudinary uploads images through Cloudinary's unsigned upload endpoint.
// Already-hosted URLs are returned unchanged, so resubmitting a saved record
// never re-uploads its receipt.
type Cloudinary struct {
	httpClient *http.Client
	endpoint   string
	preset     string
}

// NewCloudinary constructs a client for the given cloud name and unsigned
// upload preset.
func NewCloudinary(cloudName, preset string) *Cloudinary {
	return &Cloudinary{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cloudName),
		preset:     preset,
	}
}

// NewCloudinaryWithEndpoint overrides the upload endpoint; used by tests.
func NewCloudinaryWithEndpoint(endpoint, preset string) *Cloudinary {
	return &Cloudinary{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		preset:     preset,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the file at ref to Cloudinary and returns the hosted URL.
func (c *Cloudinary) Upload(ctx context.Context, ref, folder string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("read upload file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "upload")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return "", err
	}
	if err := mw.WriteField("folder", folder); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.SecureURL == "" {
		if out.Error.Message != "" {
			return "", errors.New("cloudinary: " + out.Error.Message)
		}
		return "", fmt.Errorf("cloudinary: unexpected status %d", resp.StatusCode)
	}
	return out.SecureURL, nil
}
