package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tendant/simple-theatre/pkg/theatre"
)

// ErrObjectNotFound is returned for keys with nothing stored behind them.
// It matches theatre.ErrNotFound.
var ErrObjectNotFound = fmt.Errorf("object %w", theatre.ErrNotFound)

// Backend is an in-memory implementation of the theatre.BlobStore interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	mimeTypes map[string]string
	baseURL   string
}

// Option configures the backend
type Option func(*Backend)

// WithBaseURL makes GetPreviewURL return baseURL + "/" + objectKey
func WithBaseURL(baseURL string) Option {
	return func(b *Backend) {
		b.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// New creates a new in-memory storage backend
func New(opts ...Option) *Backend {
	b := &Backend{
		objects:   make(map[string][]byte),
		mimeTypes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Upload stores the content of reader
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	b.mimeTypes[objectKey] = mimeType
	return nil
}

// Download returns a reader over a copy of the stored bytes
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return ErrObjectNotFound
	}
	delete(b.objects, objectKey)
	delete(b.mimeTypes, objectKey)
	return nil
}

// GetPreviewURL returns a URL for the object when a base URL is configured
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	if b.baseURL == "" {
		return "", errors.New("direct preview required for memory backend")
	}
	return b.baseURL + "/" + objectKey, nil
}

// MimeType returns the type recorded at upload
func (b *Backend) MimeType(objectKey string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	mt, ok := b.mimeTypes[objectKey]
	return mt, ok
}

var _ theatre.BlobStore = (*Backend)(nil)
