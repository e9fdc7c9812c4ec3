package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/events"
	"github.com/rakannimer/talk/internal/loaders"
	"github.com/rakannimer/talk/internal/repository"
)

// EventsHandler accepts domain occurrences from the platform and fans them
// out to the registered notification listeners.
type EventsHandler struct {
	broker    *events.Broker
	endpoints repository.EndpointRepositoryInterface
	entities  loaders.EntityReader
	logger    *slog.Logger
}

func NewEventsHandler(broker *events.Broker, endpoints repository.EndpointRepositoryInterface, entities loaders.EntityReader, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broker:    broker,
		endpoints: endpoints,
		entities:  entities,
		logger:    logger,
	}
}

type PublishEventRequest struct {
	Kind      string    `json:"kind"`
	CommentID uuid.UUID `json:"commentID"`
	StoryID   uuid.UUID `json:"storyID"`
	Queue     string    `json:"queue"`
}

func (h *EventsHandler) Publish(c *fiber.Ctx) error {
	tenant := c.Locals("tenant").(*domain.Tenant)

	var req PublishEventRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest
	}
	if req.CommentID == uuid.Nil || req.StoryID == uuid.Nil {
		return domain.ErrBadRequest
	}

	var ev events.Event
	switch events.Kind(req.Kind) {
	case events.KindCommentEnteredModerationQueue:
		queue := domain.ModerationQueue(req.Queue)
		switch queue {
		case domain.QueueReported, domain.QueuePending, domain.QueueUnmoderated:
		default:
			return domain.ErrBadRequest
		}
		ev = events.NewCommentEnteredModerationQueue(req.CommentID, req.StoryID, queue)
	case events.KindCommentFeatured:
		ev = events.NewCommentFeatured(req.CommentID, req.StoryID)
	default:
		return domain.ErrBadRequest
	}

	endpoints, err := h.endpoints.ListByTenant(c.Context(), tenant.ID)
	if err != nil {
		return err
	}

	publisher := h.broker.Bind(&events.Scope{
		Tenant:    tenant,
		Endpoints: endpoints,
		Loaders:   loaders.NewSet(h.entities, tenant.ID),
	})

	// Dispatch outlives the request; fiber recycles the request context
	// once the response is written, so listeners get a detached one.
	publisher.Emit(context.Background(), ev)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":   ev.ID,
		"kind": ev.Kind,
	})
}
