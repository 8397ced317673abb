// Package views counts post views. With Redis the increments are buffered in
// a hash and flushed to posts.view_count by the worker; without it each view
// updates the column directly.
package views

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/cache"
	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/pkg/logging"
)

// PendingKey is the hash holding unflushed view increments by post id
const PendingKey = "views:pending"

// Buffer is the subset of the cache used to buffer views
type Buffer interface {
	HIncrBy(ctx context.Context, key, field string, delta int64) error
	DrainHash(ctx context.Context, key string) (map[string]string, error)
}

// Counter records and flushes post views
type Counter struct {
	repo   *db.Repository
	buffer Buffer
	logger *zap.Logger
}

// NewCounter creates a view counter. buffer may be nil.
func NewCounter(repo *db.Repository, buffer Buffer) *Counter {
	return &Counter{
		repo:   repo,
		buffer: buffer,
		logger: logging.WithComponent("views"),
	}
}

// Record counts one view of postID
func (c *Counter) Record(ctx context.Context, postID int64) error {
	if c.buffer != nil {
		err := c.buffer.HIncrBy(ctx, PendingKey, strconv.FormatInt(postID, 10), 1)
		if err == nil {
			return nil
		}
		if !errors.Is(err, cache.ErrCacheDisabled) {
			c.logger.Warn("Failed to buffer view, writing through", zap.Int64("post_id", postID), zap.Error(err))
		}
	}
	return db.NewPostRepository(c.repo).AddViews(ctx, postID, 1)
}

// Flush applies buffered increments to the database and returns how many
// posts were updated. Increments that fail to apply go back into the buffer
// for the next flush.
func (c *Counter) Flush(ctx context.Context) (int, error) {
	if c.buffer == nil {
		return 0, nil
	}
	pending, err := c.buffer.DrainHash(ctx, PendingKey)
	if err != nil {
		if errors.Is(err, cache.ErrCacheDisabled) {
			return 0, nil
		}
		return 0, err
	}

	postRepo := db.NewPostRepository(c.repo)
	updated := 0
	for field, raw := range pending {
		postID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			c.logger.Warn("Skipping malformed view entry", zap.String("field", field))
			continue
		}
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta <= 0 {
			c.logger.Warn("Skipping malformed view count", zap.Int64("post_id", postID), zap.String("value", raw))
			continue
		}
		if err := postRepo.AddViews(ctx, postID, delta); err != nil {
			c.logger.Error("Failed to apply views", zap.Int64("post_id", postID), zap.Int64("delta", delta), zap.Error(err))
			if err := c.buffer.HIncrBy(ctx, PendingKey, field, delta); err != nil {
				c.logger.Error("Failed to requeue views, dropping them", zap.Int64("post_id", postID), zap.Int64("delta", delta), zap.Error(err))
			}
			continue
		}
		updated++
	}
	return updated, nil
}
