package db

import (
	"context"
	"strings"

	"github.com/tastefeed/server/internal/models"
)

// TagRepository provides tag-related database operations
type TagRepository struct {
	*Repository
}

// NewTagRepository creates a new tag repository
func NewTagRepository(repo *Repository) *TagRepository {
	return &TagRepository{Repository: repo}
}

// List returns every tag ordered by name
func (r *TagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.WithContext(ctx).Order("LOWER(name) ASC").Find(&tags).Error
	return tags, err
}

// GetByID retrieves a tag by ID, nil when absent
func (r *TagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	var tag models.Tag
	found, err := r.first(ctx, &tag, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

// GetByName retrieves a tag by case-insensitive name, nil when absent
func (r *TagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	found, err := r.first(ctx, &tag, "LOWER(name) = ?", strings.ToLower(name))
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

// Create creates a new tag
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// Rename changes a tag's name
func (r *TagRepository) Rename(ctx context.Context, id int64, name string) error {
	return r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).Update("name", name).Error
}

// Delete removes a tag and its post associations
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("tag_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Tag{}, id).Error
}

// FindOrCreate resolves names to tags, creating the missing ones.
// Names are matched case-insensitively and deduplicated.
func (r *TagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	seen := make(map[string]bool, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		existing, err := r.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			tags = append(tags, *existing)
			continue
		}
		tag := models.Tag{Name: name}
		if err := r.Create(ctx, &tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
