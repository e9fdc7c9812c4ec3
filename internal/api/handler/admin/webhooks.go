package admin

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/repository"
	"github.com/rakannimer/talk/internal/secrets"
)

// defaultInactiveIn is the rotation window applied when a roll request does
// not name one.
const defaultInactiveIn = 24 * time.Hour

type WebhooksHandler struct {
	service   *secrets.Service
	endpoints repository.EndpointRepositoryInterface
	logger    *slog.Logger
}

func NewWebhooksHandler(service *secrets.Service, endpoints repository.EndpointRepositoryInterface, logger *slog.Logger) *WebhooksHandler {
	return &WebhooksHandler{
		service:   service,
		endpoints: endpoints,
		logger:    logger,
	}
}

type EndpointRequest struct {
	URL    string   `json:"url"`
	All    bool     `json:"all"`
	Events []string `json:"events"`
}

type RollSecretRequest struct {
	InactiveIn string `json:"inactiveIn"`
}

type SecretResponse struct {
	KID        string  `json:"kid"`
	Secret     string  `json:"secret"`
	State      string  `json:"state"`
	CreatedAt  string  `json:"createdAt"`
	InactiveAt *string `json:"inactiveAt,omitempty"`
}

type EndpointResponse struct {
	ID        uuid.UUID        `json:"id"`
	URL       string           `json:"url"`
	Enabled   bool             `json:"enabled"`
	All       bool             `json:"all"`
	Events    []string         `json:"events"`
	Secrets   []SecretResponse `json:"signingSecrets"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

func toEndpointResponse(e *domain.WebhookEndpoint) EndpointResponse {
	resp := EndpointResponse{
		ID:        e.ID,
		URL:       e.URL,
		Enabled:   e.Enabled,
		All:       e.All,
		Events:    e.Events,
		Secrets:   make([]SecretResponse, 0, len(e.SigningSecrets)),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
	for _, s := range e.SigningSecrets {
		sr := SecretResponse{
			KID:       s.KID,
			Secret:    s.Secret,
			State:     string(s.State),
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		}
		if s.InactiveAt != nil {
			t := s.InactiveAt.Format(time.RFC3339)
			sr.InactiveAt = &t
		}
		resp.Secrets = append(resp.Secrets, sr)
	}
	return resp
}

func (h *WebhooksHandler) List(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	endpoints, err := h.endpoints.ListByTenant(c.Context(), tenantID)
	if err != nil {
		return err
	}

	response := make([]EndpointResponse, 0, len(endpoints))
	for i := range endpoints {
		response = append(response, toEndpointResponse(&endpoints[i]))
	}

	return c.JSON(fiber.Map{
		"endpoints": response,
	})
}

func (h *WebhooksHandler) Get(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	endpoint, err := h.endpoints.GetByID(c.Context(), tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}

func (h *WebhooksHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	var req EndpointRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest
	}

	endpoint, err := h.service.CreateEndpoint(c.Context(), tenantID, req.URL, req.All, req.Events)
	if err != nil {
		return err
	}

	h.logger.Info("webhook endpoint created",
		"endpoint_id", endpoint.ID,
		"tenant_id", tenantID,
		"url", endpoint.URL,
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}

func (h *WebhooksHandler) Update(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	var req EndpointRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest
	}

	endpoint, err := h.service.UpdateEndpoint(c.Context(), tenantID, id, req.URL, req.All, req.Events)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}

func (h *WebhooksHandler) Enable(c *fiber.Ctx) error {
	return h.setEnabled(c, true)
}

func (h *WebhooksHandler) Disable(c *fiber.Ctx) error {
	return h.setEnabled(c, false)
}

func (h *WebhooksHandler) setEnabled(c *fiber.Ctx, enabled bool) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	var endpoint *domain.WebhookEndpoint
	if enabled {
		endpoint, err = h.service.EnableEndpoint(c.Context(), tenantID, id)
	} else {
		endpoint, err = h.service.DisableEndpoint(c.Context(), tenantID, id)
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}

func (h *WebhooksHandler) Delete(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	if err := h.service.DeleteEndpoint(c.Context(), tenantID, id); err != nil {
		return err
	}

	h.logger.Info("webhook endpoint deleted",
		"endpoint_id", id,
		"tenant_id", tenantID,
	)

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *WebhooksHandler) RollSecret(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	inactiveIn := defaultInactiveIn
	var req RollSecretRequest
	if err := c.BodyParser(&req); err == nil && req.InactiveIn != "" {
		parsed, err := time.ParseDuration(req.InactiveIn)
		if err != nil || parsed < 0 {
			return domain.ErrBadRequest
		}
		inactiveIn = parsed
	}

	endpoint, err := h.service.RollEndpointSecret(c.Context(), tenantID, id, inactiveIn)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}

func (h *WebhooksHandler) DeactivateSecret(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	endpoint, err := h.service.DeactivateEndpointSecret(c.Context(), tenantID, id, c.Params("kid"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}

func (h *WebhooksHandler) DeleteSecret(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrBadRequest
	}

	endpoint, err := h.service.DeleteEndpointSecret(c.Context(), tenantID, id, c.Params("kid"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"endpoint": toEndpointResponse(endpoint)})
}
