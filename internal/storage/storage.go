// Package storage uploads user images to object storage and hands back the
// public URL that posts and profiles store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// allowedTypes maps accepted image content types to object key extensions
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists image bytes and returns a public URL
type ImageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Extension returns the key extension for contentType and whether images of
// that type are accepted
func Extension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := allowedTypes[ct]
	return ext, ok
}

// ObjectKey builds a unique key such as posts/2024/05/01/<uuid>.jpg
func ObjectKey(prefix, ext string, now time.Time) string {
	return path.Join(prefix, now.UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

// Object is an image held by Memory
type Object struct {
	Data        []byte
	ContentType string
}

// Memory keeps uploads in process memory and serves them under BaseURL.
// It stands in for object storage when none is configured.
type Memory struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemory creates an in-memory store serving URLs under baseURL
func NewMemory(baseURL string) *Memory {
	return &Memory{BaseURL: strings.TrimSuffix(baseURL, "/"), objects: map[string]Object{}}
}

// Upload implements ImageStore
func (m *Memory) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	key = strings.TrimPrefix(key, "/")
	m.mu.Lock()
	m.objects[key] = Object{Data: b, ContentType: contentType}
	m.mu.Unlock()
	return m.BaseURL + "/" + key, nil
}

// Get returns a stored object
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[strings.TrimPrefix(key, "/")]
	return obj, ok
}

// Delete implements ImageStore
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, strings.TrimPrefix(key, "/"))
	m.mu.Unlock()
	return nil
}
