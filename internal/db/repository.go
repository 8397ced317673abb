package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository provides database access methods. A Repository created inside
// Transaction is bound to that transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Conn returns the underlying gorm handle for query builders outside this package
func (r *Repository) Conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Transaction runs fn inside one database transaction. fn receives a
// Repository bound to the transaction; every statement that must commit
// atomically has to go through it.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) (err error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Repository{db: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// first loads one row into dst and reports whether it was found
func (r *Repository) first(ctx context.Context, dst interface{}, query interface{}, args ...interface{}) (bool, error) {
	err := r.db.WithContext(ctx).Where(query, args...).First(dst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// offset converts a 1-based page into a row offset
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
