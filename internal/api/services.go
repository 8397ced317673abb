package api

import (
	"github.com/tastefeed/server/internal/cache"
	"github.com/tastefeed/server/internal/comments"
	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/events"
	"github.com/tastefeed/server/internal/feed"
	"github.com/tastefeed/server/internal/interaction"
	"github.com/tastefeed/server/internal/notify"
	"github.com/tastefeed/server/internal/posts"
	"github.com/tastefeed/server/internal/tags"
	"github.com/tastefeed/server/internal/users"
	"github.com/tastefeed/server/internal/views"
)

// Services are the domain services behind the handlers
type Services struct {
	Interactions  *interaction.Service
	Comments      *comments.Service
	Feed          *feed.Service
	Posts         *posts.Service
	Users         *users.Service
	Tags          *tags.Service
	Notifications *notify.Service
	Views         *views.Counter
}

// NewServices wires every service on one repository. redisCache may be nil.
func NewServices(repo *db.Repository, redisCache *cache.Cache, publisher events.Publisher, feedOpts feed.Options) Services {
	var buffer views.Buffer
	if redisCache != nil {
		buffer = redisCache
	}

	fanout := notify.NewFanout(repo)
	return Services{
		Interactions:  interaction.NewService(repo, fanout, publisher),
		Comments:      comments.NewService(repo, fanout, publisher),
		Feed:          feed.NewService(repo, feedOpts),
		Posts:         posts.NewService(repo, publisher),
		Users:         users.NewService(repo),
		Tags:          tags.NewService(repo),
		Notifications: notify.NewService(repo),
		Views:         views.NewCounter(repo, buffer),
	}
}
