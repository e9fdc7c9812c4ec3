package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rakannimer/talk/internal/repository"
)

const TenantHeader = "X-Tenant-ID"

type TenantDependencies struct {
	TenantRepo repository.TenantRepositoryInterface
	Logger     *slog.Logger
}

// Tenant resolves the tenant named by the X-Tenant-ID header and stores it
// in the request locals. Every admin route runs behind it.
func Tenant(deps TenantDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(TenantHeader)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "MISSING_TENANT",
					"message": "X-Tenant-ID header is required",
				},
			})
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "INVALID_TENANT",
					"message": "X-Tenant-ID must be a UUID",
				},
			})
		}

		tenant, err := deps.TenantRepo.GetByID(c.Context(), tenantID)
		if err != nil {
			deps.Logger.Warn("tenant lookup failed",
				slog.String("tenant_id", tenantID.String()),
				slog.Any("error", err),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "UNKNOWN_TENANT",
					"message": "Tenant not found",
				},
			})
		}

		if !tenant.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "TENANT_INACTIVE",
					"message": "Tenant is deactivated",
				},
			})
		}

		c.Locals("tenant_id", tenant.ID)
		c.Locals("tenant", tenant)

		return c.Next()
	}
}
