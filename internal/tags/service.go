// Package tags manages the tag vocabulary. Fixed tags are curated and can be
// neither renamed nor removed.
package tags

import (
	"context"
	"strings"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/models"
)

// MaxNameLength bounds a tag name in runes
const MaxNameLength = 64

// Service manages tags
type Service struct {
	repo *db.Repository
}

// NewService creates a new tag service
func NewService(repo *db.Repository) *Service {
	return &Service{repo: repo}
}

// List returns every tag ordered by name
func (s *Service) List(ctx context.Context) ([]*models.Tag, error) {
	tags, err := db.NewTagRepository(s.repo).List(ctx)
	if err != nil {
		return nil, errs.Internal("tags.List", err)
	}
	if tags == nil {
		tags = []*models.Tag{}
	}
	return tags, nil
}

// Create adds a tag. Names are unique regardless of case.
func (s *Service) Create(ctx context.Context, name string) (*models.Tag, error) {
	const op = "tags.Create"
	name, err := cleanName(op, name)
	if err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: name}
	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		tagRepo := db.NewTagRepository(tx)
		if err := ensureFree(ctx, op, tagRepo, name, 0); err != nil {
			return err
		}
		return errs.Internal(op, tagRepo.Create(ctx, tag))
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// Rename changes the name of a tag that is not fixed
func (s *Service) Rename(ctx context.Context, id int64, name string) (*models.Tag, error) {
	const op = "tags.Rename"
	name, err := cleanName(op, name)
	if err != nil {
		return nil, err
	}

	var renamed *models.Tag
	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		tagRepo := db.NewTagRepository(tx)
		tag, err := mutable(ctx, op, tagRepo, id)
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, op, tagRepo, name, id); err != nil {
			return err
		}
		if err := tagRepo.Rename(ctx, id, name); err != nil {
			return errs.Internal(op, err)
		}
		tag.Name = name
		renamed = tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Delete removes a tag that is not fixed and detaches it from every post
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "tags.Delete"
	return s.repo.Transaction(ctx, func(tx *db.Repository) error {
		tagRepo := db.NewTagRepository(tx)
		if _, err := mutable(ctx, op, tagRepo, id); err != nil {
			return err
		}
		return errs.Internal(op, tagRepo.Delete(ctx, id))
	})
}

func cleanName(op, name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", errs.Validation(op, "tag name is required")
	case len([]rune(name)) > MaxNameLength:
		return "", errs.Validation(op, "tag name exceeds %d characters", MaxNameLength)
	}
	return name, nil
}

func mutable(ctx context.Context, op string, tagRepo *db.TagRepository, id int64) (*models.Tag, error) {
	if id <= 0 {
		return nil, errs.Validation(op, "invalid tag id")
	}
	tag, err := tagRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errs.Internal(op, err)
	}
	if tag == nil {
		return nil, errs.NotFound(op, "tag %d not found", id)
	}
	if tag.IsFixed {
		return nil, errs.Forbidden(op, "tag %q is fixed", tag.Name)
	}
	return tag, nil
}

// ensureFree fails with Conflict when another tag already uses name
func ensureFree(ctx context.Context, op string, tagRepo *db.TagRepository, name string, selfID int64) error {
	existing, err := tagRepo.GetByName(ctx, name)
	if err != nil {
		return errs.Internal(op, err)
	}
	if existing != nil && existing.ID != selfID {
		return errs.Conflict(op, "tag %q already exists", existing.Name)
	}
	return nil
}
