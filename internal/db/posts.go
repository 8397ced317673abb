package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/tastefeed/server/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a live (not soft-deleted) post by ID, nil when absent
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	found, err := r.first(ctx, &post, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

// GetWithTags retrieves a live post with author and tags loaded
func (r *PostRepository) GetWithTags(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Author").Preload("Tags").Where("id = ?", id).First(&post).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create creates a new post together with its tag associations
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// Update applies column updates to a post
func (r *PostRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error
}

// ReplaceTags swaps the tag set of a post
func (r *PostRepository) ReplaceTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	return r.db.WithContext(ctx).Model(post).Association("Tags").Replace(tags)
}

// SoftDelete marks a post DELETED and stamps deleted_at
func (r *PostRepository) SoftDelete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&models.Post{}).Where("id = ?", id).
		Update("status", models.PostStatusDeleted).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Post{}, id).Error
}

// AdjustLikesCount moves the stored like counter by delta. A decrement never
// drops the counter below zero. Returns the number of rows changed.
func (r *PostRepository) AdjustLikesCount(ctx context.Context, id int64, delta int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Unscoped().Where("id = ?", id)
	if delta < 0 {
		q = q.Where("likes_count >= ?", -delta)
	}
	res := q.UpdateColumn("likes_count", gorm.Expr("likes_count + ?", delta))
	return res.RowsAffected, res.Error
}

// AddViews adds delta to a post's view counter
func (r *PostRepository) AddViews(ctx context.Context, id int64, delta int64) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).Unscoped().Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error
}

// LikeDrift describes a post whose stored counter disagrees with its like rows
type LikeDrift struct {
	PostID int64 `gorm:"column:post_id"`
	Stored int64 `gorm:"column:stored"`
	Actual int64 `gorm:"column:actual"`
}

// FindLikeDrift returns up to limit posts whose likes_count differs from the live count
func (r *PostRepository) FindLikeDrift(ctx context.Context, limit int) ([]LikeDrift, error) {
	var drift []LikeDrift
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS post_id, p.likes_count AS stored, COALESCE(l.cnt, 0) AS actual
		FROM posts p
		LEFT JOIN (SELECT post_id, COUNT(*) AS cnt FROM likes GROUP BY post_id) l ON l.post_id = p.id
		WHERE p.likes_count <> COALESCE(l.cnt, 0)
		ORDER BY p.id
		LIMIT ?`, limit).Scan(&drift).Error
	return drift, err
}

// RepairLikesCount sets likes_count to the live count of like rows
func (r *PostRepository) RepairLikesCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).Unscoped().Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr("(SELECT COUNT(*) FROM likes WHERE likes.post_id = ?)", id)).Error
}

// CountByAuthor counts published posts of an author
func (r *PostRepository) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? AND status = ?", authorID, models.PostStatusPublished).
		Count(&count).Error
	return count, err
}
