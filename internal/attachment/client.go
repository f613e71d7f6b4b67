package attachment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
	"github.com/lodhran-gov/complaints/internal/shared/metrics"
)

// Client delegates file uploads to the external attachment store and
// returns the public URL of the stored file
type Client struct {
	baseURL string
	maxSize int64
	http    *http.Client
}

// NewClient creates a new attachment client
func NewClient(cfg config.AttachmentConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		maxSize: cfg.MaxSizeBytes,
		http:    &http.Client{Timeout: cfg.UploadTimeout},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload sends a file to the attachment store. Oversized files are
// rejected before the request leaves the process.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	start := time.Now()

	url, err := c.upload(ctx, filename, r)
	if err != nil {
		metrics.RecordAttachmentUpload("error", time.Since(start))
		return "", err
	}

	metrics.RecordAttachmentUpload("ok", time.Since(start))
	return url, nil
}

func (c *Client) upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", errors.Upload(err)
	}

	// read one byte past the cap to detect oversized files
	n, err := io.Copy(part, io.LimitReader(r, c.maxSize+1))
	if err != nil {
		return "", errors.Upload(err)
	}
	if n > c.maxSize {
		return "", errors.Validation("file is too large", map[string]string{
			"max_bytes": fmt.Sprintf("%d", c.maxSize),
		})
	}
	if err := writer.Close(); err != nil {
		return "", errors.Upload(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return "", errors.Upload(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Upload(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errors.Upload(fmt.Errorf("attachment store returned %d", resp.StatusCode))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Upload(err)
	}
	if parsed.URL == "" {
		return "", errors.Upload(fmt.Errorf("attachment store returned no url"))
	}

	return parsed.URL, nil
}
