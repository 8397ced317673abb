package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/db/dbtest"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/models"
)

func TestHome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "Alice")
	bob := dbtest.User(t, f.db, "Bob")
	carol := dbtest.User(t, f.db, "Carol")
	dbtest.Post(t, f.db, bob, "from bob")
	dbtest.Post(t, f.db, carol, "from carol")

	page, err := f.svc.Home(ctx, Query{ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"from carol", "from bob"}, titles(page), "falls back to latest")

	_, err = db.NewRelationRepository(f.repo).InsertFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	page, err = f.svc.Home(ctx, Query{ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"from bob"}, titles(page))

	_, err = f.svc.Home(ctx, Query{})
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestDiscoverAndShowcase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "Alice")
	bob := dbtest.User(t, f.db, "Bob")
	plain := dbtest.Post(t, f.db, alice, "plain")
	dish := dbtest.Post(t, f.db, alice, "dish")
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", dish.ID).Update("is_showcase", true).Error)
	f.tag(t, dish, "dessert")
	f.like(t, bob, plain)

	page, err := f.svc.Discover(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "dish"}, titles(page))

	page, err = f.svc.Showcase(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"dish"}, titles(page))

	page, err = f.svc.Showcase(ctx, Query{Search: "DESSERT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dish"}, titles(page))
}
