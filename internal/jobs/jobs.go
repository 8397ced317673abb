package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/pkg/logging"
)

// auditBatch bounds how many drifted posts one audit run repairs
const auditBatch = 500

// LikeCounterAudit compares each post's stored likes_count with its like rows
// and rewrites the counter where they disagree
type LikeCounterAudit struct {
	repo   *db.Repository
	logger *zap.Logger
}

// NewLikeCounterAudit creates the audit job
func NewLikeCounterAudit(repo *db.Repository) *LikeCounterAudit {
	return &LikeCounterAudit{repo: repo, logger: logging.WithComponent("like-audit")}
}

// Name implements Job
func (j *LikeCounterAudit) Name() string { return "like_counter_audit" }

// Run implements Job
func (j *LikeCounterAudit) Run(ctx context.Context) error {
	_, err := j.Repair(ctx)
	return err
}

// Repair fixes up to one batch of drifted counters and returns how many it fixed
func (j *LikeCounterAudit) Repair(ctx context.Context) (int, error) {
	postRepo := db.NewPostRepository(j.repo)
	drift, err := postRepo.FindLikeDrift(ctx, auditBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to find like drift: %w", err)
	}

	repaired := 0
	for _, d := range drift {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		if err := postRepo.RepairLikesCount(ctx, d.PostID); err != nil {
			j.logger.Error("Failed to repair likes count", zap.Int64("post_id", d.PostID), zap.Error(err))
			continue
		}
		j.logger.Warn("Repaired likes count",
			zap.Int64("post_id", d.PostID),
			zap.Int64("stored", d.Stored),
			zap.Int64("actual", d.Actual))
		repaired++
	}
	return repaired, nil
}

// Flusher applies buffered increments
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// ViewFlush moves buffered view counts into posts.view_count
type ViewFlush struct {
	flusher Flusher
	logger  *zap.Logger
}

// NewViewFlush creates the flush job
func NewViewFlush(flusher Flusher) *ViewFlush {
	return &ViewFlush{flusher: flusher, logger: logging.WithComponent("view-flush")}
}

// Name implements Job
func (j *ViewFlush) Name() string { return "view_flush" }

// Run implements Job
func (j *ViewFlush) Run(ctx context.Context) error {
	n, err := j.flusher.Flush(ctx)
	if err != nil {
		return fmt.Errorf("failed to flush views: %w", err)
	}
	if n > 0 {
		j.logger.Debug("Flushed views", zap.Int("posts", n))
	}
	return nil
}
