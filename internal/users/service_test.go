package users

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

func setup(t *testing.T) (*db.DB, *db.Repository, *Service) {
	database := dbtest.New(t)
	repo := db.NewRepository(database.DB)
	return database, repo, NewService(repo)
}

func follow(t *testing.T, repo *db.Repository, from, to *models.User) {
	_, err := db.NewRelationRepository(repo).InsertFollow(context.Background(), from.ID, to.ID)
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	database, repo, svc := setup(t)
	ctx := context.Background()
	alice := dbtest.User(t, database, "Alice")
	bob := dbtest.User(t, database, "Bob")
	carol := dbtest.User(t, database, "Carol")
	dbtest.Post(t, database, alice, "one")
	dbtest.Post(t, database, alice, "two")
	follow(t, repo, bob, alice)
	follow(t, repo, carol, alice)
	follow(t, repo, alice, bob)

	tests := []struct {
		name          string
		viewer        int64
		wantFollowing bool
	}{
		{"follower", bob.ID, true},
		{"stranger", 0, false},
		{"self", alice.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Profile(ctx, alice.ID, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, "Alice", p.Name)
			assert.Equal(t, int64(2), p.FollowersCount)
			assert.Equal(t, int64(1), p.FollowingCount)
			assert.Equal(t, int64(2), p.PostsCount)
			assert.Equal(t, tt.wantFollowing, p.IsFollowing)
		})
	}

	_, err := svc.Profile(ctx, 999, 0)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestUpdate(t *testing.T) {
	database, _, svc := setup(t)
	ctx := context.Background()
	alice := dbtest.User(t, database, "Alice")

	name := "  Alicia "
	p, err := svc.Update(ctx, alice.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", p.Name)

	p, err = svc.SetAvatar(ctx, alice.ID, "https://img.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", p.Name)
	assert.Equal(t, "https://img.example.com/a.png", p.AvatarURL)

	blank := " "
	_, err = svc.Update(ctx, alice.ID, UpdateInput{Name: &blank})
	assert.True(t, errs.Is(err, errs.KindValidation), "got %v", err)

	badURL := "avatar"
	_, err = svc.Update(ctx, alice.ID, UpdateInput{AvatarURL: &badURL})
	assert.True(t, errs.Is(err, errs.KindValidation), "got %v", err)
}

func TestFollowLists(t *testing.T) {
	database, repo, svc := setup(t)
	ctx := context.Background()
	alice := dbtest.User(t, database, "Alice")
	bob := dbtest.User(t, database, "Bob")
	carol := dbtest.User(t, database, "Carol")
	follow(t, repo, bob, alice)
	follow(t, repo, carol, alice)

	followers, err := svc.Followers(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers.TotalCount)
	names := []string{followers.Users[0].Name, followers.Users[1].Name}
	assert.ElementsMatch(t, []string{"Bob", "Carol"}, names)

	following, err := svc.Following(ctx, bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, following.Users, 1)
	assert.Equal(t, "Alice", following.Users[0].Name)
	assert.Equal(t, 20, following.Limit)

	empty, err := svc.Following(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Users)

	_, err = svc.Followers(ctx, 999, 1, 10)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}
