package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/growmetrics/marketing-api/internal/cache"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/queue"
	"github.com/growmetrics/marketing-api/internal/service"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

type ContentHandler struct {
	dr          service.DriveService
	sc          *cache.SuggestionCache
	AsynqClient *asynq.Client
}

func NewContentHandler(dr service.DriveService, sc *cache.SuggestionCache, asynqClient *asynq.Client) *ContentHandler {
	return &ContentHandler{dr: dr, sc: sc, AsynqClient: asynqClient}
}

func (h *ContentHandler) ListContent(c *fiber.Ctx) error {
	if h.dr == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Google Drive is not configured",
		})
	}

	items, err := h.dr.ListMedia(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Unable to list drive content",
		})
	}

	return c.Status(fiber.StatusOK).JSON(items)
}

// ApproveContent queues a Drive file for publishing, immediately or at the
// requested time.
func (h *ContentHandler) ApproveContent(c *fiber.Ctx) error {
	var req transfer.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if req.FileID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing file_id",
		})
	}

	var delay time.Duration
	if req.ScheduledTime != "" {
		scheduled, err := time.Parse("2006-01-02T15:04", req.ScheduledTime)
		if err != nil {
			scheduled, err = time.Parse(time.RFC3339, req.ScheduledTime)
		}
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid scheduled_time",
			})
		}
		delay = time.Until(scheduled)
		if delay < 0 {
			delay = 0
		}
	}

	payload := queue.PublishPostPayload{
		FileID:    req.FileID,
		Caption:   req.Caption,
		MediaKind: req.MediaKind,
	}
	if err := queue.EnqueuePublish(h.AsynqClient, payload, delay); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post scheduled successfully",
	})
}

func (h *ContentHandler) GetSuggestions(c *fiber.Ctx) error {
	stored, err := h.sc.Get(c.Context())
	if errors.Is(err, cache.ErrNotFound) {
		return c.Status(fiber.StatusOK).JSON(cache.StoredSuggestions{
			Suggestions: []models.ContentSuggestion{},
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to read suggestions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(stored)
}

// UploadSuggestions accepts a suggestion batch from an external generator.
// The suggestions field may be a JSON array or a JSON-encoded string holding
// one; automation tools produce both shapes.
func (h *ContentHandler) UploadSuggestions(c *fiber.Ctx) error {
	var req transfer.SuggestionUpload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	suggestions, err := decodeSuggestions(req.Suggestions)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid suggestions payload",
		})
	}
	if len(suggestions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No suggestions in payload",
		})
	}

	generatedAt := req.GeneratedAt
	if generatedAt == "" {
		generatedAt = time.Now().Format(time.RFC3339)
	}

	batch := &cache.StoredSuggestions{
		Suggestions: suggestions,
		BasedOn:     req.BasedOnMetrics,
		GeneratedAt: generatedAt,
		Source:      "upload",
	}

	written, err := h.sc.SetIfNewer(c.Context(), batch)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to store suggestions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Suggestions received",
		"stored":  written,
		"count":   len(suggestions),
	})
}

func decodeSuggestions(raw json.RawMessage) ([]models.ContentSuggestion, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var suggestions []models.ContentSuggestion
	if err := json.Unmarshal(raw, &suggestions); err == nil {
		return suggestions, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(encoded), &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}
