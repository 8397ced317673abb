package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"
	"go.uber.org/zap"

	"github.com/tastefeed/server/pkg/config"
	"github.com/tastefeed/server/pkg/logging"
)

// COS stores images in a Tencent Cloud COS bucket
type COS struct {
	client     *cos.Client
	publicBase *url.URL
	logger     *zap.Logger
}

// MemoryBaseURL is the path the API serves in-memory uploads from
const MemoryBaseURL = "/uploads"

// New returns the COS store when configured and an in-memory store otherwise
func New(cfg *config.StorageConfig) (ImageStore, error) {
	if !cfg.Enabled {
		logging.WithComponent("storage").Warn("Object storage not configured, keeping uploads in memory")
		return NewMemory(MemoryBaseURL), nil
	}
	return NewCOS(cfg)
}

// NewCOS creates a COS-backed store
func NewCOS(cfg *config.StorageConfig) (*COS, error) {
	if cfg.BucketURL == "" || cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("cos bucket url, secret id and secret key are required")
	}

	bucketURL, err := url.Parse(cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cos bucket url: %w", err)
	}
	publicBase := bucketURL
	if cfg.PublicBaseURL != "" {
		if publicBase, err = url.Parse(cfg.PublicBaseURL); err != nil {
			return nil, fmt.Errorf("failed to parse cos public base url: %w", err)
		}
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	logger := logging.WithComponent("storage")
	logger.Info("COS image store initialized",
		zap.String("bucket_url", bucketURL.String()),
		zap.String("public_base_url", publicBase.String()))

	return &COS{client: client, publicBase: publicBase, logger: logger}, nil
}

// Upload implements ImageStore
func (c *COS) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	opts := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:   contentType,
			ContentLength: size,
		},
	}
	resp, err := c.client.Object.Put(ctx, key, r, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload %s: unexpected status %d: %s", key, resp.StatusCode, body)
	}

	publicURL := c.publicURL(key)
	c.logger.Debug("Image uploaded", zap.String("key", key), zap.Int64("size", size), zap.String("url", publicURL))
	return publicURL, nil
}

// Delete implements ImageStore
func (c *COS) Delete(ctx context.Context, key string) error {
	resp, err := c.client.Object.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

func (c *COS) publicURL(key string) string {
	return joinURL(c.publicBase, key)
}

func joinURL(base *url.URL, key string) string {
	u := *base
	basePath := u.Path
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	u.Path = basePath + strings.TrimPrefix(key, "/")
	return u.String()
}
