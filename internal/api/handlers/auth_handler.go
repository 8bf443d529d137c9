package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/service"
	"github.com/growmetrics/marketing-api/internal/transfer"
	"github.com/growmetrics/marketing-api/pkg/utils"
)

type AuthHandler struct {
	ig  service.InstagramService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, ig service.InstagramService) *AuthHandler {
	return &AuthHandler{ig: ig, cfg: cfg}
}

// Login checks the single dashboard password and issues the session cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if h.cfg.DashboardPassword == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "DASHBOARD_PASSWORD is not configured",
		})
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.DashboardPassword)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, "dashboard", 24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   false,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged in",
	})
}

// Session reports the authenticated subject so the dashboard can check
// login state without re-authenticating.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"subject": GetSubject(c),
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusOK)
}

// ConnectInstagram starts the Facebook OAuth flow for the business account.
func (h *AuthHandler) ConnectInstagram(c *fiber.Ctx) error {
	authURL, err := h.ig.GetAuthURL()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Redirect(authURL)
}

// InstagramCallback exchanges the OAuth code for a long-lived token. No token
// store exists here; the token is returned so the operator can place it in
// the environment.
func (h *AuthHandler) InstagramCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing code parameter",
		})
	}

	token, err := h.ig.ExchangeCodeForToken(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":      "Set INSTAGRAM_ACCESS_TOKEN to this value and restart the server",
		"access_token": token,
	})
}
