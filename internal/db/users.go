package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/tastefeed/server/internal/models"
)

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID, nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	found, err := r.first(ctx, &user, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with id exists
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateProfile applies the non-nil profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, avatarURL *string) error {
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if avatarURL != nil {
		updates["avatar_url"] = *avatarURL
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// FollowCounts returns follower and following counts computed from follow rows
func (r *UserRepository) FollowCounts(ctx context.Context, id int64) (followers, following int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", id).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", id).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// ListFollowers returns the users following id, newest edge first
func (r *UserRepository) ListFollowers(ctx context.Context, id int64, page, limit int) ([]*models.User, int64, error) {
	return r.listEdges(ctx, "follows.following_id = ?", "follows.follower_id", id, page, limit)
}

// ListFollowing returns the users id follows, newest edge first
func (r *UserRepository) ListFollowing(ctx context.Context, id int64, page, limit int) ([]*models.User, int64, error) {
	return r.listEdges(ctx, "follows.follower_id = ?", "follows.following_id", id, page, limit)
}

func (r *UserRepository) listEdges(ctx context.Context, where, joinCol string, id int64, page, limit int) ([]*models.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON "+joinCol+" = users.id").
		Where(where, id)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	if err := base.Session(&gorm.Session{}).
		Order("follows.created_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
