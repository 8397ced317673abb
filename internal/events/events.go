// Package events publishes domain events about interactions to Kafka so
// downstream consumers (search indexing, analytics) can follow state changes.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypePostLiked       = "post.liked"
	TypePostUnliked     = "post.unliked"
	TypePostFavorited   = "post.favorited"
	TypePostUnfavorited = "post.unfavorited"
	TypeUserFollowed    = "user.followed"
	TypeUserUnfollowed  = "user.unfollowed"
	TypeCommentCreated  = "comment.created"
	TypeCommentDeleted  = "comment.deleted"
	TypePostCreated     = "post.created"
	TypePostDeleted     = "post.deleted"
)

// Event is the envelope written to the interactions topic
type Event struct {
	EventID    string    `json:"eventId"`
	Type       string    `json:"type"`
	ActorID    int64     `json:"actorId"`
	SubjectID  int64     `json:"subjectId"`
	PostID     int64     `json:"postId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New builds an event with a fresh id
func New(eventType string, actorID, subjectID int64) Event {
	return Event{
		EventID:    uuid.New().String(),
		Type:       eventType,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher
func (Nop) Close() error { return nil }
