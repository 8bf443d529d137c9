package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/service"
)

type AnalyticsHandler struct {
	af service.AppsFlyerService
	ig service.InstagramService
}

func NewAnalyticsHandler(af service.AppsFlyerService, ig service.InstagramService) *AnalyticsHandler {
	return &AnalyticsHandler{af: af, ig: ig}
}

func (h *AnalyticsHandler) GetAppsFlyerMetrics(c *fiber.Ctx) error {
	appID := c.Query("app_id")
	days := c.QueryInt("days", 30)

	metrics, err := h.af.GetMetrics(c.Context(), appID, days)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Unable to fetch appsflyer metrics",
		})
	}

	return c.Status(fiber.StatusOK).JSON(metrics)
}

func (h *AnalyticsHandler) GetInstagramAnalytics(c *fiber.Ctx) error {
	posts, err := h.ig.RecentPosts(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
		"stats": statsFor(posts),
	})
}

func statsFor(posts []models.InstagramPost) models.InstagramStats {
	stats := models.InstagramStats{TotalPosts: len(posts)}
	for _, p := range posts {
		stats.TotalLikes += p.LikeCount
		stats.TotalComments += p.CommentsCount
		stats.AvgEngagement += p.EngagementRate
	}
	if len(posts) > 0 {
		stats.AvgEngagement /= float64(len(posts))
	}
	return stats
}

func (h *AnalyticsHandler) RemoveInstagramPost(c *fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing post id",
		})
	}

	if err := h.ig.DeletePost(c.Context(), postID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// CollectSnapshot assembles the account and per-post insight numbers for an
// external scheduler to archive.
func (h *AnalyticsHandler) CollectSnapshot(c *fiber.Ctx) error {
	accountInsights, err := h.ig.AccountInsights(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	posts, err := h.ig.RecentPosts(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	snapshot := models.AnalyticsSnapshot{
		AccountInsights: accountInsights,
		CollectedAt:     time.Now().Format(time.RFC3339),
	}

	for _, post := range posts {
		metrics, err := h.ig.MediaInsights(c.Context(), post.ID)
		if err != nil {
			slog.Info("media insights unavailable", "postId", post.ID, "error", err.Error())
			continue
		}
		snapshot.MediaInsights = append(snapshot.MediaInsights, models.MediaInsights{
			ID:        post.ID,
			Caption:   post.Caption,
			Timestamp: post.Timestamp,
			Metrics:   metrics,
		})
	}

	return c.Status(fiber.StatusOK).JSON(snapshot)
}
