package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/service"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

type PublishHandler struct {
	ig service.InstagramService
	cl service.MediaRelay
	ms service.MediaService
}

func NewPublishHandler(ig service.InstagramService, cl service.MediaRelay, ms service.MediaService) *PublishHandler {
	return &PublishHandler{ig: ig, cl: cl, ms: ms}
}

// PublishPost publishes a media asset or an already public URL to Instagram.
// Stored uploads are staged on Cloudinary first because the Graph API has to
// fetch the media over the public internet.
func (h *PublishHandler) PublishPost(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	mediaURL := req.MediaURL
	mediaKind := req.MediaKind

	if req.AssetID != "" {
		data, asset, err := h.ms.ReadContent(c.Context(), req.AssetID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Media not found",
			})
		}

		mediaURL, err = h.cl.UploadMedia(c.Context(), data, asset.FileName, asset.MediaKind)
		if err != nil {
			slog.Error("cloudinary staging failed", "assetId", req.AssetID, "error", err.Error())
			return c.Status(fiber.StatusBadGateway).JSON(transfer.PublishResult{
				Success: false,
				Error:   err.Error(),
			})
		}
		if mediaKind == "" {
			mediaKind = asset.MediaKind
		}
	}

	if mediaURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Either asset_id or media_url is required",
		})
	}
	if mediaKind == "" {
		mediaKind = models.MediaKindImage
	}

	job := &models.PublishJob{
		MediaURL:  mediaURL,
		Caption:   req.Caption,
		MediaKind: mediaKind,
	}

	if err := h.ig.Publish(c.Context(), job); err != nil {
		slog.Error("publish failed", "state", job.State, "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(transfer.PublishResult{
			Success: false,
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishResult{
		Success: true,
		PostID:  job.PostID,
	})
}
