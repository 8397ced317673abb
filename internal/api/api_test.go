package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/db/dbtest"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/feed"
	"github.com/tastefeed/server/internal/models"
	"github.com/tastefeed/server/internal/storage"
)

const testSecret = "test-secret"

type server struct {
	t        *testing.T
	db       *db.DB
	engine   *gin.Engine
	auth     *Authenticator
	images   *storage.Memory
	recorder *events.Recorder
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := dbtest.New(t)
	recorder := &events.Recorder{}
	services := NewServices(db.NewRepository(database.DB), nil, recorder, feed.Options{DefaultLimit: 10, MaxLimit: 100})
	auth := NewAuthenticator(testSecret)
	images := storage.NewMemory(storage.MemoryBaseURL)

	engine := gin.New()
	NewRouter(services, auth, images, Options{
		MaxUploadBytes: 1024,
		Checks:         map[string]HealthChecker{"database": database},
	}).SetupRoutes(engine)

	return &server{t: t, db: database, engine: engine, auth: auth, images: images, recorder: recorder}
}

func (s *server) token(u *models.User) string {
	s.t.Helper()
	token, err := s.auth.Issue(u.ID, u.Role, time.Hour)
	require.NoError(s.t, err)
	return token
}

// do sends a JSON request as user (nil for anonymous)
func (s *server) do(method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(user))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	decode(t, w, &body)
	return body.Error.Kind
}

func TestAuthentication(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")

	expired, err := s.auth.Issue(alice.ID, models.RoleUser, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewAuthenticator("other-secret").Issue(alice.ID, models.RoleUser, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"valid", "Bearer " + s.token(alice), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if w.Code == http.StatusUnauthorized && errorKind(t, w) != kindUnauthorized {
				t.Errorf("kind = %q, want %q", errorKind(t, w), kindUnauthorized)
			}
		})
	}
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	s := newServer(t)
	post := dbtest.Post(t, s.db, dbtest.User(t, s.db, "Alice"), "Soup")

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), nil)
	req.Header.Set("Authorization", "Bearer broken")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLikeScenario(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	bob := dbtest.User(t, s.db, "Bob")

	w := s.do(http.MethodPost, "/api/v1/posts", alice, map[string]interface{}{
		"title": "Ramen", "content": "Broth for two days", "tags": []string{"Dinner"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created feed.PostView
	decode(t, w, &created)
	assert.Equal(t, []string{"Dinner"}, created.Tags)
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", created.ID)

	for i := 0; i < 2; i++ {
		w = s.do(http.MethodPost, likePath, bob, nil)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
		assert.Empty(t, w.Body.String())
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", created.ID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view feed.PostView
	decode(t, w, &view)
	assert.Equal(t, int64(1), view.LikesCount)
	assert.True(t, view.IsLiked)

	w = s.do(http.MethodGet, "/api/v1/notifications", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox struct {
		Notifications []struct {
			Type     string `json:"type"`
			SenderID int64  `json:"senderId"`
		} `json:"notifications"`
		TotalCount  int64 `json:"totalCount"`
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, w, &inbox)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, models.NotifyTypeLike, inbox.Notifications[0].Type)
	assert.Equal(t, bob.ID, inbox.Notifications[0].SenderID)
	assert.Equal(t, int64(1), inbox.UnreadCount)

	w = s.do(http.MethodDelete, likePath, bob, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", created.ID), nil, nil)
	decode(t, w, &view)
	assert.Zero(t, view.LikesCount)
	assert.False(t, view.IsLiked)

	assert.Contains(t, s.recorder.Types(), events.TypePostLiked)
	assert.Contains(t, s.recorder.Types(), events.TypePostUnliked)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	bob := dbtest.User(t, s.db, "Bob")
	post := dbtest.Post(t, s.db, alice, "Pie")
	require.NoError(t, s.db.Create(&models.Tag{Name: "Lunch", IsFixed: true}).Error)

	tests := []struct {
		name       string
		method     string
		path       string
		user       *models.User
		body       interface{}
		wantStatus int
		wantKind   string
	}{
		{"bad id", http.MethodGet, "/api/v1/posts/abc", nil, nil, http.StatusBadRequest, "validation"},
		{"missing post", http.MethodGet, "/api/v1/posts/999", nil, nil, http.StatusNotFound, "not_found"},
		{"like missing post", http.MethodPost, "/api/v1/posts/999/like", bob, nil, http.StatusNotFound, "not_found"},
		{"foreign delete", http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", post.ID), bob, nil, http.StatusForbidden, "forbidden"},
		{"self follow", http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), alice, nil, http.StatusBadRequest, "validation"},
		{"empty comment", http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), bob, map[string]string{"text": "  "}, http.StatusBadRequest, "validation"},
		{"duplicate tag", http.MethodPost, "/api/v1/tags", bob, map[string]string{"name": "lunch"}, http.StatusConflict, "conflict"},
		{"tag without name", http.MethodPost, "/api/v1/tags", bob, map[string]string{}, http.StatusBadRequest, "validation"},
		{"bad sort", http.MethodGet, "/api/v1/posts?sortBy=random", nil, nil, http.StatusBadRequest, "validation"},
		{"bad page", http.MethodGet, "/api/v1/posts?page=x", nil, nil, http.StatusBadRequest, "validation"},
		{"status all for user", http.MethodGet, "/api/v1/posts?status=ALL", bob, nil, http.StatusForbidden, "forbidden"},
		{"home anonymous", http.MethodGet, "/api/v1/posts/feed", nil, nil, http.StatusUnauthorized, kindUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.user, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := errorKind(t, w); got != tt.wantKind {
				t.Errorf("kind = %q, want %q", got, tt.wantKind)
			}
		})
	}
}

func TestStatusAllForAdmin(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	admin := &models.User{Name: "Root", Email: "root@example.com", Role: models.RoleAdmin}
	require.NoError(t, s.db.Create(admin).Error)
	dbtest.Post(t, s.db, alice, "kept")
	gone := dbtest.Post(t, s.db, alice, "gone")
	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", gone.ID), alice, nil).Code)

	var page feed.Page
	w := s.do(http.MethodGet, "/api/v1/posts?status=ALL", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &page)
	assert.Equal(t, int64(2), page.TotalCount)

	decode(t, s.do(http.MethodGet, "/api/v1/posts", nil, nil), &page)
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestListPagination(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	for i := 0; i < 25; i++ {
		dbtest.Post(t, s.db, alice, fmt.Sprintf("post %02d", i))
	}

	w := s.do(http.MethodGet, "/api/v1/posts?page=3&limit=10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page feed.Page
	decode(t, w, &page)
	assert.Len(t, page.Posts, 5)
	assert.Equal(t, int64(25), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/posts?limit=100", alice.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Len(t, page.Posts, 25)
}

func TestFollowAndFavorites(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	bob := dbtest.User(t, s.db, "Bob")
	post := dbtest.Post(t, s.db, alice, "Tart")

	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), bob, nil).Code)
	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/favorite", post.ID), bob, nil).Code)

	var profile struct {
		FollowersCount int64 `json:"followersCount"`
		IsFollowing    bool  `json:"isFollowing"`
	}
	decode(t, s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", alice.ID), bob, nil), &profile)
	assert.Equal(t, int64(1), profile.FollowersCount)
	assert.True(t, profile.IsFollowing)

	var page feed.Page
	decode(t, s.do(http.MethodGet, "/api/v1/me/favorites", bob, nil), &page)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.Posts[0].IsFavorited)
	assert.Equal(t, int64(1), page.Posts[0].FavoritesCount)

	decode(t, s.do(http.MethodGet, "/api/v1/posts/feed", bob, nil), &page)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.Posts[0].Author.ID == alice.ID)

	require.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), bob, nil).Code)
	decode(t, s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", alice.ID), bob, nil), &profile)
	assert.Zero(t, profile.FollowersCount)
}

func TestCommentsAndNotifications(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	bob := dbtest.User(t, s.db, "Bob")
	post := dbtest.Post(t, s.db, alice, "Stew")
	commentsPath := fmt.Sprintf("/api/v1/posts/%d/comments", post.ID)

	w := s.do(http.MethodPost, commentsPath, bob, map[string]string{"text": "Looks great"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment struct {
		ID   int64  `json:"id"`
		Text string `json:"text"`
	}
	decode(t, w, &comment)
	assert.Equal(t, "Looks great", comment.Text)

	var list struct {
		Comments []json.RawMessage `json:"comments"`
	}
	decode(t, s.do(http.MethodGet, commentsPath, nil, nil), &list)
	assert.Len(t, list.Comments, 1)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", comment.ID), alice, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", comment.ID), bob, nil).Code)

	var unread struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/notifications/unread-count", alice, nil), &unread)
	assert.Equal(t, int64(1), unread.UnreadCount)

	var updated struct {
		Updated int64 `json:"updated"`
	}
	decode(t, s.do(http.MethodPost, "/api/v1/notifications/read-all", alice, nil), &updated)
	assert.Equal(t, int64(1), updated.Updated)
	decode(t, s.do(http.MethodGet, "/api/v1/notifications/unread-count", alice, nil), &unread)
	assert.Zero(t, unread.UnreadCount)

	var cleared struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, s.do(http.MethodDelete, "/api/v1/notifications", alice, nil), &cleared)
	assert.Equal(t, int64(1), cleared.Deleted)
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "photo.bin")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadPostImage(t *testing.T) {
	s := newServer(t)
	alice := dbtest.User(t, s.db, "Alice")
	post := dbtest.Post(t, s.db, alice, "Bread")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	tests := []struct {
		name string
		user *models.User
		data []byte
		want int
	}{
		{"text file", alice, []byte("just some words"), http.StatusBadRequest},
		{"too large", alice, append(png, bytes.Repeat([]byte{1}, 2048)...), http.StatusBadRequest},
		{"not the author", dbtest.User(t, s.db, "Bob"), png, http.StatusForbidden},
		{"png", alice, png, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartImage(t, tt.data)
			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/image", post.ID), body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+s.token(tt.user))
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			require.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want != http.StatusOK {
				return
			}

			var view feed.PostView
			decode(t, w, &view)
			require.True(t, strings.HasPrefix(view.ImageURL, storage.MemoryBaseURL+"/posts/"), view.ImageURL)

			served := s.do(http.MethodGet, view.ImageURL, nil, nil)
			assert.Equal(t, http.StatusOK, served.Code)
			assert.Equal(t, "image/png", served.Header().Get("Content-Type"))
		})
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, w, &body)
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "OK", body.Checks["database"])
}
