package attachment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/errors"
)

func testConfig(url string) config.AttachmentConfig {
	return config.AttachmentConfig{
		BaseURL:       url,
		UploadTimeout: 5 * time.Second,
		MaxSizeBytes:  1024,
	}
}

func TestUploadReturnsStoredURL(t *testing.T) {
	var gotFilename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected multipart file field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"url": "https://cdn.example.com/u/evidence.jpg"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	url, err := client.Upload(context.Background(), "evidence.jpg", strings.NewReader("image bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/u/evidence.jpg" {
		t.Errorf("unexpected url %q", url)
	}
	if gotFilename != "evidence.jpg" {
		t.Errorf("expected filename forwarded, got %q", gotFilename)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized file must not reach the store")
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Upload(context.Background(), "big.jpg", strings.NewReader(strings.Repeat("x", 2048)))

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUploadStoreFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Upload(context.Background(), "evidence.jpg", strings.NewReader("bytes"))

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "UPLOAD_ERROR" {
		t.Fatalf("expected UPLOAD_ERROR, got %v", err)
	}
	if appErr.HTTPStatus != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", appErr.HTTPStatus)
	}
}

func TestUploadStoreUnreachable(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"))
	_, err := client.Upload(context.Background(), "evidence.jpg", strings.NewReader("bytes"))

	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "UPLOAD_ERROR" {
		t.Fatalf("expected UPLOAD_ERROR, got %v", err)
	}
}
