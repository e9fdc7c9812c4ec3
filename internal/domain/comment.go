package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ModerationQueue identifies which moderation queue a comment sits in.
type ModerationQueue string

const (
	QueueReported    ModerationQueue = "REPORTED"
	QueuePending     ModerationQueue = "PENDING"
	QueueUnmoderated ModerationQueue = "UNMODERATED"
)

type Comment struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	StoryID   uuid.UUID  `json:"story_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Status    string     `json:"status"`
	Revisions []Revision `json:"revisions"`
	CreatedAt time.Time  `json:"created_at"`
}

type Revision struct {
	ID        uuid.UUID `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// LatestRevision returns the current body-bearing revision. Revisions are
// append-only, so the last entry is the latest.
func (c *Comment) LatestRevision() Revision {
	if len(c.Revisions) == 0 {
		return Revision{}
	}
	return c.Revisions[len(c.Revisions)-1]
}

// LatestBody returns the latest revision body with embedded HTML line breaks
// normalized to plain newlines.
func (c *Comment) LatestBody() string {
	body := c.LatestRevision().Body
	body = strings.ReplaceAll(body, "<br/>", "\n")
	body = strings.ReplaceAll(body, "<br>", "\n")
	return body
}

type Story struct {
	ID       uuid.UUID     `json:"id"`
	TenantID uuid.UUID     `json:"tenant_id"`
	URL      string        `json:"url"`
	Metadata StoryMetadata `json:"metadata"`
}

type StoryMetadata struct {
	Title string `json:"title,omitempty"`
}

// Title returns the story title, falling back to the URL when scraping has
// not produced one yet.
func (s *Story) Title() string {
	if s.Metadata.Title != "" {
		return s.Metadata.Title
	}
	return s.URL
}

// CommentPermalink returns the story URL pointed at a specific comment.
func (s *Story) CommentPermalink(commentID uuid.UUID) string {
	if strings.Contains(s.URL, "?") {
		return s.URL + "&commentID=" + commentID.String()
	}
	return s.URL + "?commentID=" + commentID.String()
}

type User struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
}
