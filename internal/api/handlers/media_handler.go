package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/growmetrics/marketing-api/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(s service.MediaService) *MediaHandler {
	return &MediaHandler{s: s}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	asset, err := h.s.Upload(c.Context(), file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(asset)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	assetID := c.Query("id")

	if assetID != "" {
		asset, err := h.s.Get(c.Context(), assetID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Media not found",
			})
		}
		return c.Status(fiber.StatusOK).JSON(asset)
	}

	assets, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list media",
		})
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	assetID := c.Query("id")
	if assetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing id parameter",
		})
	}

	if err := h.s.Remove(c.Context(), assetID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove media",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
