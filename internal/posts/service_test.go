package posts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/db/dbtest"
	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/models"
)

type fixture struct {
	db       *db.DB
	svc      *Service
	recorder *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	database := dbtest.New(t)
	recorder := &events.Recorder{}
	return &fixture{
		db:       database,
		svc:      NewService(db.NewRepository(database.DB), recorder),
		recorder: recorder,
	}
}

func tagNames(post *models.Post) []string {
	names := make([]string, len(post.Tags))
	for i, tag := range post.Tags {
		names[i] = tag.Name
	}
	return names
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "Alice")
	require.NoError(t, f.db.Create(&models.Tag{Name: "Dinner", IsFixed: true}).Error)

	post, err := f.svc.Create(ctx, alice.ID, CreateInput{
		Title:   "  Soup  ",
		Content: "hot",
		Tags:    []string{"dinner", "quick", "QUICK", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Soup", post.Title)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.ElementsMatch(t, []string{"Dinner", "quick"}, tagNames(post))

	var tagCount int64
	require.NoError(t, f.db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount, "existing tag is connected, not duplicated")

	assert.Equal(t, []string{events.TypePostCreated}, f.recorder.Types())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	alice := dbtest.User(t, f.db, "Alice")

	tests := []struct {
		name   string
		author int64
		in     CreateInput
		kind   errs.Kind
	}{
		{"missing title", alice.ID, CreateInput{Title: "  "}, errs.KindValidation},
		{"long title", alice.ID, CreateInput{Title: strings.Repeat("x", 256)}, errs.KindValidation},
		{"bad image url", alice.ID, CreateInput{Title: "t", ImageURL: "not a url"}, errs.KindValidation},
		{"showcase without image", alice.ID, CreateInput{Title: "t", IsShowcase: true}, errs.KindValidation},
		{"too many tags", alice.ID, CreateInput{Title: "t", Tags: strings.Split("a b c d e f g h i j k", " ")}, errs.KindValidation},
		{"unknown author", 999, CreateInput{Title: "t"}, errs.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.author, tt.in)
			assert.True(t, errs.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "Alice")
	post, err := f.svc.Create(ctx, alice.ID, CreateInput{Title: "Soup", Content: "hot", Tags: []string{"dinner"}})
	require.NoError(t, err)

	title := "Cold soup"
	tags := []string{"summer"}
	updated, err := f.svc.Update(ctx, post.ID, alice.ID, UpdateInput{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "Cold soup", updated.Title)
	assert.Equal(t, "hot", updated.Content, "unset fields are kept")
	assert.Equal(t, []string{"summer"}, tagNames(updated))

	url := "https://img.example.com/soup.jpg"
	updated, err = f.svc.SetImage(ctx, post.ID, alice.ID, url)
	require.NoError(t, err)
	assert.Equal(t, url, updated.ImageURL)
	assert.Equal(t, []string{"summer"}, tagNames(updated))
}

func TestUpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "Alice")
	bob := dbtest.User(t, f.db, "Bob")
	post := dbtest.Post(t, f.db, alice, "Soup")

	empty := ""
	showcase := true
	tests := []struct {
		name      string
		postID    int64
		requester int64
		in        UpdateInput
		kind      errs.Kind
	}{
		{"not the author", post.ID, bob.ID, UpdateInput{}, errs.KindForbidden},
		{"missing post", 999, alice.ID, UpdateInput{}, errs.KindNotFound},
		{"invalid id", 0, alice.ID, UpdateInput{}, errs.KindValidation},
		{"blank title", post.ID, alice.ID, UpdateInput{Title: &empty}, errs.KindValidation},
		{"showcase without image", post.ID, alice.ID, UpdateInput{IsShowcase: &showcase}, errs.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tt.postID, tt.requester, tt.in)
			assert.True(t, errs.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.User(t, f.db, "Alice")
	bob := dbtest.User(t, f.db, "Bob")
	post := dbtest.Post(t, f.db, alice, "Soup")

	err := f.svc.Delete(ctx, post.ID, bob.ID)
	assert.True(t, errs.Is(err, errs.KindForbidden), "got %v", err)

	require.NoError(t, f.svc.Delete(ctx, post.ID, alice.ID))

	var stored models.Post
	require.NoError(t, f.db.Unscoped().First(&stored, post.ID).Error)
	assert.Equal(t, models.PostStatusDeleted, stored.Status)
	assert.True(t, stored.DeletedAt.Valid)

	err = f.svc.Delete(ctx, post.ID, alice.ID)
	assert.True(t, errs.Is(err, errs.KindNotFound), "second delete: %v", err)

	assert.Equal(t, []string{events.TypePostDeleted}, f.recorder.Types())
}
