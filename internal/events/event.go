package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
)

// Kind is one member of the closed set of domain occurrences this subsystem
// publishes. Payload shapes are fixed per kind and never mixed.
type Kind string

const (
	KindCommentEnteredModerationQueue Kind = "COMMENT_ENTERED_MODERATION_QUEUE"
	KindCommentFeatured               Kind = "COMMENT_FEATURED"
)

// Kinds returns every registered event kind.
func Kinds() []Kind {
	return []Kind{
		KindCommentEnteredModerationQueue,
		KindCommentFeatured,
	}
}

type CommentEnteredModerationQueuePayload struct {
	CommentID uuid.UUID              `json:"commentID"`
	StoryID   uuid.UUID              `json:"storyID"`
	Queue     domain.ModerationQueue `json:"queue"`
}

type CommentFeaturedPayload struct {
	CommentID uuid.UUID `json:"commentID"`
	StoryID   uuid.UUID `json:"storyID"`
}

// Event is immutable once constructed.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"type"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

func newEvent(kind Kind, data any) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

func NewCommentEnteredModerationQueue(commentID, storyID uuid.UUID, queue domain.ModerationQueue) Event {
	return newEvent(KindCommentEnteredModerationQueue, CommentEnteredModerationQueuePayload{
		CommentID: commentID,
		StoryID:   storyID,
		Queue:     queue,
	})
}

func NewCommentFeatured(commentID, storyID uuid.UUID) Event {
	return newEvent(KindCommentFeatured, CommentFeaturedPayload{
		CommentID: commentID,
		StoryID:   storyID,
	})
}

// CommentRef extracts the comment and story referenced by the event.
func (e Event) CommentRef() (commentID, storyID uuid.UUID, ok bool) {
	switch data := e.Data.(type) {
	case CommentEnteredModerationQueuePayload:
		return data.CommentID, data.StoryID, true
	case CommentFeaturedPayload:
		return data.CommentID, data.StoryID, true
	default:
		return uuid.Nil, uuid.Nil, false
	}
}

// Queue returns the moderation queue carried by the event, when it has one.
func (e Event) Queue() (domain.ModerationQueue, bool) {
	if data, ok := e.Data.(CommentEnteredModerationQueuePayload); ok {
		return data.Queue, true
	}
	return "", false
}
