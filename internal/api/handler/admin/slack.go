package admin

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/repository"
)

type SlackHandler struct {
	tenants repository.TenantRepositoryInterface
	logger  *slog.Logger
}

func NewSlackHandler(tenants repository.TenantRepositoryInterface, logger *slog.Logger) *SlackHandler {
	return &SlackHandler{
		tenants: tenants,
		logger:  logger,
	}
}

func (h *SlackHandler) Get(c *fiber.Ctx) error {
	tenant := c.Locals("tenant").(*domain.Tenant)

	return c.JSON(fiber.Map{"slack": tenant.Slack})
}

func (h *SlackHandler) Update(c *fiber.Ctx) error {
	tenantID := c.Locals("tenant_id").(uuid.UUID)

	var settings domain.SlackSettings
	if err := c.BodyParser(&settings); err != nil {
		return domain.ErrBadRequest
	}

	if err := h.tenants.UpdateSlackSettings(c.Context(), tenantID, settings); err != nil {
		return err
	}

	h.logger.Info("slack settings updated",
		"tenant_id", tenantID,
		"channels", len(settings.Channels),
	)

	return c.JSON(fiber.Map{"slack": settings})
}
