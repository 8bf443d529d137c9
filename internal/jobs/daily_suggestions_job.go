package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/growmetrics/marketing-api/internal/cache"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/service"
)

// DailySuggestionsJob regenerates the dashboard's content suggestions every
// morning from the latest attribution metrics.
type DailySuggestionsJob struct {
	af service.AppsFlyerService
	ai service.AIService
	sc *cache.SuggestionCache
}

func NewDailySuggestionsJob(
	af service.AppsFlyerService,
	ai service.AIService,
	sc *cache.SuggestionCache) *DailySuggestionsJob {
	return &DailySuggestionsJob{
		af: af,
		ai: ai,
		sc: sc,
	}
}

func (j *DailySuggestionsJob) GenerateSuggestions() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	metrics, err := j.af.GetMetrics(ctx, "", 30)
	if err != nil {
		slog.Info("Unable to fetch metrics for daily suggestions", "error", err.Error())
		return
	}

	ideas := j.ai.GenerateContentSuggestions(ctx, metrics)
	suggestions := buildSuggestionBatch(ideas, metrics)

	batch := &cache.StoredSuggestions{
		Suggestions: suggestions,
		BasedOn:     metricsSummary(metrics),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Source:      "cron",
	}

	written, err := j.sc.SetIfNewer(ctx, batch)
	if err != nil {
		slog.Info("Unable to cache daily suggestions", "error", err.Error())
		return
	}
	if !written {
		slog.Info("Daily suggestions skipped, a newer batch is already cached")
		return
	}

	slog.Info("Daily suggestions generated", "count", len(suggestions))
}

func buildSuggestionBatch(ideas []string, metrics *models.AppsFlyerMetrics) []models.ContentSuggestion {
	summary := metricsSummary(metrics)
	now := time.Now().UnixMilli()

	suggestions := make([]models.ContentSuggestion, 0, len(ideas))
	for i, idea := range ideas {
		suggestions = append(suggestions, models.ContentSuggestion{
			ID:                   fmt.Sprintf("suggestion-%d-%d", now, i),
			Concept:              idea,
			Caption:              idea,
			BestPostingTime:      "6:00 PM",
			TargetAudience:       "App users and prospects",
			EngagementPrediction: "medium",
			BasedOnMetrics:       summary,
		})
	}
	return suggestions
}

func metricsSummary(metrics *models.AppsFlyerMetrics) *models.SuggestionMetrics {
	topCountry := "Global"
	if len(metrics.TopCountries) > 0 {
		topCountry = metrics.TopCountries[0].Country
	}
	return &models.SuggestionMetrics{
		TotalInstalls: metrics.TotalInstalls,
		TopCountry:    topCountry,
		RetentionRate: metrics.RetentionDay30,
	}
}
