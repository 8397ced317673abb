package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tastefeed/server/pkg/config"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		contentType string
		ext         string
		ok          bool
	}{
		{"image/jpeg", ".jpg", true},
		{"IMAGE/PNG", ".png", true},
		{"image/webp; charset=binary", ".webp", true},
		{"application/pdf", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			ext, ok := Extension(tt.contentType)
			if ext != tt.ext || ok != tt.ok {
				t.Errorf("Extension(%q) = %q, %v; want %q, %v", tt.contentType, ext, ok, tt.ext, tt.ok)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	a := ObjectKey("posts", ".jpg", now)
	b := ObjectKey("posts", ".jpg", now)

	if !strings.HasPrefix(a, "posts/2024/05/01/") || !strings.HasSuffix(a, ".jpg") {
		t.Errorf("ObjectKey() = %q", a)
	}
	if a == b {
		t.Errorf("ObjectKey() returned the same key twice: %q", a)
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base string
		key  string
		want string
	}{
		{"https://bucket.cos.ap-shanghai.myqcloud.com", "posts/a.jpg", "https://bucket.cos.ap-shanghai.myqcloud.com/posts/a.jpg"},
		{"https://cdn.example.com/img/", "/posts/a.jpg", "https://cdn.example.com/img/posts/a.jpg"},
		{"https://cdn.example.com/img", "posts/a.jpg", "https://cdn.example.com/img/posts/a.jpg"},
	}

	for _, tt := range tests {
		base, err := url.Parse(tt.base)
		if err != nil {
			t.Fatal(err)
		}
		if got := joinURL(base, tt.key); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestNewWithoutBucketUsesMemory(t *testing.T) {
	store, err := New(&config.StorageConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := store.(*Memory); !ok {
		t.Errorf("New() = %T, want *Memory", store)
	}
}

func TestNewCOSRequiresCredentials(t *testing.T) {
	_, err := NewCOS(&config.StorageConfig{BucketURL: "https://bucket.cos.ap-shanghai.myqcloud.com", Enabled: true})
	if err == nil {
		t.Error("NewCOS() without credentials should fail")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory("http://localhost:8080/uploads/")
	got, err := m.Upload(context.Background(), "posts/a.png", strings.NewReader("png"), 3, "image/png")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got != "http://localhost:8080/uploads/posts/a.png" {
		t.Errorf("Upload() url = %q", got)
	}
	obj, ok := m.Get("/posts/a.png")
	if !ok || string(obj.Data) != "png" || obj.ContentType != "image/png" {
		t.Errorf("Get() = %+v, %v", obj, ok)
	}
	_ = m.Delete(context.Background(), "posts/a.png")
	if _, ok := m.Get("posts/a.png"); ok {
		t.Error("Delete() left the object")
	}
}
