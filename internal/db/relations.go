package db

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/tastefeed/server/internal/models"
)

// RelationRepository mutates the join rows behind likes, favorites and follows.
// Inserts and deletes report whether a row actually changed so callers can
// keep dependent counters exact under concurrent duplicates.
type RelationRepository struct {
	*Repository
}

// NewRelationRepository creates a new relation repository
func NewRelationRepository(repo *Repository) *RelationRepository {
	return &RelationRepository{Repository: repo}
}

// insert adds row unless it already exists
func (r *RelationRepository) insert(ctx context.Context, row interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	return res.RowsAffected == 1, res.Error
}

// remove deletes rows matching the predicate
func (r *RelationRepository) remove(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Where(query, args...).Delete(model)
	return res.RowsAffected > 0, res.Error
}

func (r *RelationRepository) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

// InsertLike records a like; false when it already existed
func (r *RelationRepository) InsertLike(ctx context.Context, userID, postID int64) (bool, error) {
	return r.insert(ctx, &models.Like{UserID: userID, PostID: postID})
}

// DeleteLike removes a like; false when there was none
func (r *RelationRepository) DeleteLike(ctx context.Context, userID, postID int64) (bool, error) {
	return r.remove(ctx, &models.Like{}, "user_id = ? AND post_id = ?", userID, postID)
}

// InsertFavorite records a favorite; false when it already existed
func (r *RelationRepository) InsertFavorite(ctx context.Context, userID, postID int64) (bool, error) {
	return r.insert(ctx, &models.Favorite{UserID: userID, PostID: postID})
}

// DeleteFavorite removes a favorite; false when there was none
func (r *RelationRepository) DeleteFavorite(ctx context.Context, userID, postID int64) (bool, error) {
	return r.remove(ctx, &models.Favorite{}, "user_id = ? AND post_id = ?", userID, postID)
}

// InsertFollow records a follow edge; false when it already existed
func (r *RelationRepository) InsertFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	return r.insert(ctx, &models.Follow{FollowerID: followerID, FollowingID: followingID})
}

// DeleteFollow removes a follow edge; false when there was none
func (r *RelationRepository) DeleteFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	return r.remove(ctx, &models.Follow{}, "follower_id = ? AND following_id = ?", followerID, followingID)
}

// IsFollowing reports whether follower follows following
func (r *RelationRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	return r.exists(ctx, &models.Follow{}, "follower_id = ? AND following_id = ?", followerID, followingID)
}

// FollowingIDs lists every user id the follower follows
func (r *RelationRepository) FollowingIDs(ctx context.Context, followerID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	return ids, err
}
