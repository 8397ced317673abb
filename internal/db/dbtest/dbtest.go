// Package dbtest opens throwaway in-memory databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/models"
)

var seq int64

// New returns a migrated in-memory sqlite database private to the test
func New(t testing.TB) *db.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&seq, 1))

	database, err := db.Open(sqlite.Open(dsn), "ERROR")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// One connection keeps the shared in-memory database alive and
	// serializes writers the way sqlite expects.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// User inserts a user with the given name
func User(t testing.TB, database *db.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: strings.ToLower(name) + "@example.com", Role: models.RoleUser}
	if err := database.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// Post inserts a published post by author
func Post(t testing.TB, database *db.DB, author *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: author.ID, Title: title, Content: "content of " + title, Status: models.PostStatusPublished}
	if err := database.Create(p).Error; err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return p
}

// Rows counts rows of model matching the condition
func Rows(t testing.TB, database *db.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := database.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
