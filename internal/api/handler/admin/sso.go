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

type SSOHandler struct {
	service *secrets.Service
	ssoKeys repository.SSOKeyRepositoryInterface
	logger  *slog.Logger
}

func NewSSOHandler(service *secrets.Service, ssoKeys repository.SSOKeyRepositoryInterface, logger *slog.Logger) *SSOHandler {
	return &SSOHandler{
		service: service,
		ssoKeys: ssoKeys,
		logger:  logger,
	}
}

type RotateSSOKeyRequest struct {
	InactiveIn string `json:"inactiveIn"`
}

func toKeyResponses(keys []domain.Secret) []SecretResponse {
	response := make([]SecretResponse, 0, len(keys))
	for _, k := range keys {
		kr := SecretResponse{
			KID:       k.KID,
			Secret:    k.Secret,
			State:     string(k.State),
			CreatedAt: k.CreatedAt.Format(time.RFC3339),
		}
		if k.InactiveAt != nil {
			t := k.InactiveAt.Format(time.RFC3339)
			kr.InactiveAt = &t
		}
		response = append(response, kr)
	}
	return response
}

func (h *SSOHandler) List(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	keys, err := h.ssoKeys.ListByTenant(c.Context(), tenantID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"keys": toKeyResponses(keys)})
}

func (h *SSOHandler) Create(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	keys, err := h.service.CreateSSOKey(c.Context(), tenantID)
	if err != nil {
		return err
	}

	h.logger.Info("sso key created", "tenant_id", tenantID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"keys": toKeyResponses(keys)})
}

func (h *SSOHandler) Rotate(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	inactiveIn := defaultInactiveIn
	var req RotateSSOKeyRequest
	if err := c.BodyParser(&req); err == nil && req.InactiveIn != "" {
		parsed, err := time.ParseDuration(req.InactiveIn)
		if err != nil || parsed < 0 {
			return domain.ErrBadRequest
		}
		inactiveIn = parsed
	}

	keys, err := h.service.RotateSSOKey(c.Context(), tenantID, inactiveIn)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"keys": toKeyResponses(keys)})
}

// Regenerate is the legacy rotation endpoint, fixed 30 day window.
func (h *SSOHandler) Regenerate(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	keys, err := h.service.RegenerateSSOKey(c.Context(), tenantID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"keys": toKeyResponses(keys)})
}

func (h *SSOHandler) Deactivate(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	keys, err := h.service.DeactivateSSOKey(c.Context(), tenantID, c.Params("kid"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"keys": toKeyResponses(keys)})
}

func (h *SSOHandler) Delete(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	keys, err := h.service.DeleteSSOKey(c.Context(), tenantID, c.Params("kid"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"keys": toKeyResponses(keys)})
}
