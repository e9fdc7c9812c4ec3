package webhook

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
	"time"

	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/events"
)

// Envelope is the wire format delivered to generic webhook endpoints.
type Envelope struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

// Listener delivers every emitted event to the tenant's subscribed webhook
// endpoints as a signed JSON envelope.
type Listener struct {
	client *http.Client
}

func NewListener(client *http.Client) *Listener {
	return &Listener{client: client}
}

func (l *Listener) Name() string { return "webhook" }

// Kinds declares interest in every event kind; per-endpoint subscriptions
// narrow it down at dispatch time.
func (l *Listener) Kinds() []events.Kind {
	return events.Kinds()
}

// Dispatch sends one delivery per enabled, subscribed endpoint. Endpoints
// are independent: a failure against one is logged and does not affect the
// others or the caller.
func (l *Listener) Dispatch(ctx context.Context, scope *events.Scope, ev events.Event) error {
	body, err := json.Marshal(Envelope{
		ID:        ev.ID,
		Type:      string(ev.Kind),
		Data:      ev.Data,
		CreatedAt: ev.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	var wg sync.WaitGroup
	for i := range scope.Endpoints {
		endpoint := scope.Endpoints[i]
		if !endpoint.Enabled || endpoint.URL == "" || !endpoint.SubscribedTo(string(ev.Kind)) {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.deliver(ctx, &endpoint, string(ev.Kind), body); err != nil {
				scope.Logger.Error("webhook delivery failed",
					slog.String("listener", l.Name()),
					slog.String("endpoint_id", endpoint.ID.String()),
					slog.String("event", string(ev.Kind)),
					slog.Any("error", err),
				)
			}
		}()
	}
	wg.Wait()

	return nil
}

func (l *Listener) deliver(ctx context.Context, endpoint *domain.WebhookEndpoint, kind string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Coral-Event", kind)
	req.Header.Set("User-Agent", "Talk-Webhook/1.0")

	// Mid-rotation both old and new secrets verify, but only secrets still
	// ACTIVE sign. An endpoint whose sole active secret was deleted goes
	// out unsigned until a new secret is created.
	if signatures := SignaturesFor(endpoint.SigningSecrets, body); len(signatures) > 0 {
		req.Header.Set(SignatureHeader, strings.Join(signatures, ","))
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("post envelope: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned non-2xx status code: %d", resp.StatusCode)
	}

	return nil
}
