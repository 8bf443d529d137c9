package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/growmetrics/marketing-api/configs"
)

// CronMiddleware guards the endpoints scheduler platforms call. Callers
// authenticate with a static bearer secret instead of a session cookie.
type CronMiddleware struct {
	cfg config.Config
}

func NewCronMiddleware(cfg config.Config) *CronMiddleware {
	return &CronMiddleware{cfg: cfg}
}

func (m *CronMiddleware) CronMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.CronSecret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "CRON_SECRET is not configured",
			})
		}

		auth := c.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.CronSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		return c.Next()
	}
}
