package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/growmetrics/marketing-api/internal/service"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

type AIHandler struct {
	ai service.AIService
	af service.AppsFlyerService
	ig service.InstagramService
}

func NewAIHandler(ai service.AIService, af service.AppsFlyerService, ig service.InstagramService) *AIHandler {
	return &AIHandler{ai: ai, af: af, ig: ig}
}

// GenerateCaptions always answers 200: the advisor degrades to its fallback
// set instead of failing.
func (h *AIHandler) GenerateCaptions(c *fiber.Ctx) error {
	var req transfer.CaptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if req.PostType == "" {
		req.PostType = "photo"
	}
	if req.FileName == "" {
		req.FileName = "untitled"
	}

	suggestions := h.ai.GenerateCaptionSuggestions(c.Context(), req.FileName, req.PostType)
	return c.Status(fiber.StatusOK).JSON(suggestions)
}

func (h *AIHandler) GenerateInsights(c *fiber.Ctx) error {
	var req transfer.InsightRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	metrics, err := h.af.GetMetrics(c.Context(), req.AppID, 30)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Unable to fetch app metrics",
		})
	}

	switch req.Type {
	case "content":
		ideas := h.ai.GenerateContentSuggestions(c.Context(), metrics)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"suggestions": ideas})
	case "strategy":
		strategy := h.ai.GenerateMarketingStrategy(c.Context(), metrics)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"strategy": strategy})
	default:
		insights := h.ai.GenerateInsights(c.Context(), metrics)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"insights": insights})
	}
}

func (h *AIHandler) GetRecommendations(c *fiber.Ctx) error {
	posts, err := h.ig.RecentPosts(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Unable to fetch instagram posts",
		})
	}

	recommendations, err := h.ai.GenerateRecommendations(c.Context(), posts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"recommendations": recommendations})
}
