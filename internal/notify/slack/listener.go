package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/rakannimer/talk/internal/events"
)

// Listener delivers matched events to the tenant's chat channels as
// human-readable messages.
type Listener struct {
	client *http.Client

	// orgURL is the admin application base URL used to build moderation
	// links.
	orgURL string
}

func NewListener(client *http.Client, orgURL string) *Listener {
	return &Listener{
		client: client,
		orgURL: strings.TrimSuffix(orgURL, "/"),
	}
}

func (l *Listener) Name() string { return "slack" }

func (l *Listener) Kinds() []events.Kind {
	return []events.Kind{
		events.KindCommentFeatured,
		events.KindCommentEnteredModerationQueue,
	}
}

// message is the chat sink wire format: a short plain-text summary plus
// structured sections.
type message struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

type block struct {
	Type string     `json:"type"`
	Text *blockText `json:"text,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func section(text string) block {
	return block{Type: "section", Text: &blockText{Type: "mrkdwn", Text: text}}
}

// Dispatch evaluates every configured channel's triggers against the event
// and posts the rendered message to each match. Channels are independent: a
// failed post is logged and does not affect the others.
func (l *Listener) Dispatch(ctx context.Context, scope *events.Scope, ev events.Event) error {
	channels := scope.Tenant.Slack.Channels
	if !scope.Tenant.Slack.HasConfiguredChannels() {
		// No sink configured is a normal state, not a failure.
		return nil
	}

	msg, ok, err := l.buildMessage(ctx, scope, ev)
	if err != nil {
		return fmt.Errorf("resolve event entities: %w", err)
	}
	if !ok {
		// A referenced entity was deleted while the event was in flight.
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	var wg sync.WaitGroup
	for _, channel := range channels {
		if !channel.Configured() || !Matches(channel.Triggers, ev) {
			continue
		}

		wg.Add(1)
		go func(hookURL, name string) {
			defer wg.Done()
			if err := l.post(ctx, hookURL, body); err != nil {
				scope.Logger.Error("could not post comment to channel",
					slog.String("listener", l.Name()),
					slog.String("channel", name),
					slog.String("event", string(ev.Kind)),
					slog.Any("error", err),
				)
			}
		}(channel.HookURL, channel.Name)
	}
	wg.Wait()

	return nil
}

// buildMessage resolves the referenced comment, story and author and renders
// the channel message. ok is false when any of them no longer exists.
func (l *Listener) buildMessage(ctx context.Context, scope *events.Scope, ev events.Event) (*message, bool, error) {
	commentID, storyID, ok := ev.CommentRef()
	if !ok {
		return nil, false, nil
	}

	comment, err := scope.Loaders.Comments.Load(ctx, commentID)
	if err != nil {
		return nil, false, err
	}
	if comment == nil {
		return nil, false, nil
	}

	story, err := scope.Loaders.Stories.Load(ctx, storyID)
	if err != nil {
		return nil, false, err
	}
	if story == nil {
		return nil, false, nil
	}

	author, err := scope.Loaders.Users.Load(ctx, comment.AuthorID)
	if err != nil {
		return nil, false, err
	}
	if author == nil {
		return nil, false, nil
	}

	// Tenants can carry their own admin URL; the deployment-wide one is the
	// fallback.
	orgURL := l.orgURL
	if scope.Tenant.OrganizationURL != "" {
		orgURL = strings.TrimSuffix(scope.Tenant.OrganizationURL, "/")
	}

	storyTitle := story.Title()
	moderateLink := fmt.Sprintf("%s/admin/moderate/comment/%s", orgURL, comment.ID)
	commentLink := story.CommentPermalink(comment.ID)

	return &message{
		Text: fmt.Sprintf("%s commented on: %s", author.Username, storyTitle),
		Blocks: []block{
			section(fmt.Sprintf("%s commented on:\n<%s|%s>", author.Username, story.URL, storyTitle)),
			section(fmt.Sprintf("<%s|Go to Moderation> | <%s|See Comment>", moderateLink, commentLink)),
			{Type: "divider"},
			section(comment.LatestBody()),
		},
	}, true, nil
}

func (l *Listener) post(ctx context.Context, hookURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("channel returned non-2xx status code: %d", resp.StatusCode)
	}

	return nil
}
