package tags

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/db/dbtest"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/models"
)

func newService(t *testing.T) (*db.DB, *Service) {
	database := dbtest.New(t)
	return database, NewService(db.NewRepository(database.DB))
}

func TestCreateAndList(t *testing.T) {
	_, svc := newService(t)
	ctx := context.Background()

	for _, name := range []string{"vegan", " Dessert ", "breakfast"} {
		_, err := svc.Create(ctx, name)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "VEGAN")
	assert.True(t, errs.Is(err, errs.KindConflict), "got %v", err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, tag := range list {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"breakfast", "Dessert", "vegan"}, names)
}

func TestCreateValidation(t *testing.T) {
	_, svc := newService(t)

	for _, name := range []string{"", "   ", strings.Repeat("x", MaxNameLength+1)} {
		_, err := svc.Create(context.Background(), name)
		assert.True(t, errs.Is(err, errs.KindValidation), "name %q: %v", name, err)
	}
}

func TestRenameAndDelete(t *testing.T) {
	database, svc := newService(t)
	ctx := context.Background()

	fixed := &models.Tag{Name: "Dinner", IsFixed: true}
	require.NoError(t, database.Create(fixed).Error)
	soup, err := svc.Create(ctx, "soup")
	require.NoError(t, err)
	stew, err := svc.Create(ctx, "stew")
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      int64
		newName string
		kind    errs.Kind
	}{
		{"fixed tag", fixed.ID, "Supper", errs.KindForbidden},
		{"missing tag", 999, "x", errs.KindNotFound},
		{"name taken", soup.ID, "STEW", errs.KindConflict},
		{"blank name", soup.ID, " ", errs.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Rename(ctx, tt.id, tt.newName)
			assert.True(t, errs.Is(err, tt.kind), "got %v", err)
		})
	}

	renamed, err := svc.Rename(ctx, soup.ID, "Soup")
	require.NoError(t, err, "case change of the same tag")
	assert.Equal(t, "Soup", renamed.Name)

	err = svc.Delete(ctx, fixed.ID)
	assert.True(t, errs.Is(err, errs.KindForbidden))

	author := dbtest.User(t, database, "Alice")
	post := dbtest.Post(t, database, author, "Stew night")
	require.NoError(t, database.Create(&models.PostTag{PostID: post.ID, TagID: stew.ID}).Error)

	require.NoError(t, svc.Delete(ctx, stew.ID))
	var links int64
	require.NoError(t, database.Model(&models.PostTag{}).Where("tag_id = ?", stew.ID).Count(&links).Error)
	assert.Zero(t, links)

	err = svc.Delete(ctx, stew.ID)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}
