package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-3.5-turbo"
)

type AIService interface {
	GenerateCaptionSuggestions(ctx context.Context, fileName, postType string) *models.AISuggestions
	GenerateInsights(ctx context.Context, appData *models.AppsFlyerMetrics) []models.AIInsight
	GenerateContentSuggestions(ctx context.Context, appData *models.AppsFlyerMetrics) []string
	GenerateMarketingStrategy(ctx context.Context, appData *models.AppsFlyerMetrics) string
	GenerateRecommendations(ctx context.Context, posts []models.InstagramPost) ([]string, error)
}

type aiService struct {
	cfg     config.Config
	client  *http.Client
	baseURL string
}

func NewAIService(cfg config.Config) AIService {
	return &aiService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: openAIBaseURL,
	}
}

const captionPromptTemplate = `Generate 3 Instagram caption options for this %s. Also suggest 10 relevant hashtags and the best posting time.

File name: %s
Content type: %s

Return ONLY valid JSON in this exact format:
{
  "captions": ["caption1", "caption2", "caption3"],
  "hashtags": ["#tag1", "#tag2", "#tag3", "#tag4", "#tag5", "#tag6", "#tag7", "#tag8", "#tag9", "#tag10"],
  "bestPostingTime": "6:00 PM",
  "targetAudience": "description of target audience",
  "engagementPrediction": "high"
}`

// GenerateCaptionSuggestions never fails: on any provider, network, or parse
// error it returns the static fallback set so the dashboard always has
// something to show.
func (s *aiService) GenerateCaptionSuggestions(ctx context.Context, fileName, postType string) *models.AISuggestions {
	prompt := fmt.Sprintf(captionPromptTemplate, postType, fileName, postType)

	content, err := s.chatCompletion(ctx, prompt, 0.7, 500)
	if err != nil {
		slog.Info("caption generation failed, using fallback", "error", err.Error())
		return fallbackSuggestions()
	}

	var suggestions models.AISuggestions
	if err := json.Unmarshal([]byte(content), &suggestions); err != nil {
		slog.Info("caption reply is not valid JSON, using fallback", "error", err.Error())
		return fallbackSuggestions()
	}
	if len(suggestions.Captions) == 0 {
		return fallbackSuggestions()
	}

	if suggestions.BestPostingTime == "" {
		suggestions.BestPostingTime = "6:00 PM"
	}
	if suggestions.TargetAudience == "" {
		suggestions.TargetAudience = "General audience"
	}
	switch suggestions.EngagementPrediction {
	case "high", "medium", "low":
	default:
		suggestions.EngagementPrediction = "medium"
	}

	return &suggestions
}

func fallbackSuggestions() *models.AISuggestions {
	return &models.AISuggestions{
		Captions: []string{
			"Check out this amazing content! 🚀",
			"New post alert! What do you think? 💭",
			"Sharing this with you all! ✨",
		},
		Hashtags:             []string{"#instagram", "#content", "#social", "#marketing", "#digital"},
		BestPostingTime:      "6:00 PM",
		TargetAudience:       "General audience",
		EngagementPrediction: "medium",
	}
}

const insightsPromptTemplate = `You are an expert mobile app marketing consultant. Analyze the following app performance data and provide 4-6 specific, actionable insights for the app owner.

APP PERFORMANCE DATA:
- Total Installs: %d
- Organic Installs: %d
- Average CPI: $%.2f
- Day 1 Retention: %.1f%%
- Day 7 Retention: %.1f%%
- Day 30 Retention: %.1f%%
- Total Revenue: $%.2f
- Overall ROAS: %.2f

Provide insights in JSON format with this exact structure:
{
  "insights": [
    {
      "type": "recommendation|alert|trend|opportunity",
      "title": "Brief, specific title (max 50 chars)",
      "description": "Detailed, actionable advice (100-200 words)",
      "impact": "high|medium|low",
      "actionRequired": true,
      "priority": "urgent|high|medium|low",
      "expectedOutcome": "Specific measurable outcome",
      "timeframe": "immediate|1-2 weeks|1 month|3 months"
    }
  ]
}

Focus on user acquisition, retention, revenue, campaign performance, and cost optimization. Make recommendations specific to the data provided.`

func (s *aiService) GenerateInsights(ctx context.Context, appData *models.AppsFlyerMetrics) []models.AIInsight {
	prompt := fmt.Sprintf(insightsPromptTemplate,
		appData.TotalInstalls, appData.OrganicInstalls, appData.AverageCPI,
		appData.RetentionDay1, appData.RetentionDay7, appData.RetentionDay30,
		appData.TotalRevenue, appData.ROAS)

	content, err := s.chatCompletion(ctx, prompt, 0.7, 2000)
	if err != nil {
		slog.Info("insight generation failed, using fallback", "error", err.Error())
		return fallbackInsights(appData)
	}

	var parsed struct {
		Insights []models.AIInsight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || len(parsed.Insights) == 0 {
		return fallbackInsights(appData)
	}

	now := time.Now()
	for i := range parsed.Insights {
		parsed.Insights[i].ID = fmt.Sprintf("ai-insight-%d-%d", now.UnixMilli(), i)
		parsed.Insights[i].Timestamp = now.Format(time.RFC3339)
	}
	return parsed.Insights
}

// fallbackInsights derives threshold-based advice from the metrics when the
// provider is unavailable.
func fallbackInsights(appData *models.AppsFlyerMetrics) []models.AIInsight {
	timestamp := time.Now().Format(time.RFC3339)
	var insights []models.AIInsight

	if appData.RetentionDay30 < 25 {
		insights = append(insights, models.AIInsight{
			ID:    "retention-improvement",
			Type:  "recommendation",
			Title: "Improve User Retention",
			Description: fmt.Sprintf("Your 30-day retention rate of %.1f%% is below industry average. "+
				"Implement onboarding improvements, push notification campaigns, and in-app engagement features to boost retention by 10-15%%.",
				appData.RetentionDay30),
			Impact:          "high",
			ActionRequired:  true,
			Priority:        "high",
			ExpectedOutcome: "Increase 30-day retention to 30%+",
			Timeframe:       "1 month",
			Timestamp:       timestamp,
		})
	}

	if appData.AverageCPI > 30 {
		insights = append(insights, models.AIInsight{
			ID:    "cpi-optimization",
			Type:  "alert",
			Title: "High Cost Per Install",
			Description: fmt.Sprintf("Your average CPI of $%.2f is above optimal range. "+
				"Focus on improving ad creative, targeting, and bidding strategies, and increase organic acquisition through ASO improvements.",
				appData.AverageCPI),
			Impact:          "high",
			ActionRequired:  true,
			Priority:        "urgent",
			ExpectedOutcome: "Reduce CPI by 20-30%",
			Timeframe:       "2 weeks",
			Timestamp:       timestamp,
		})
	}

	organicRate := 0.0
	if appData.TotalInstalls > 0 {
		organicRate = float64(appData.OrganicInstalls) / float64(appData.TotalInstalls) * 100
	}
	if organicRate < 40 {
		insights = append(insights, models.AIInsight{
			ID:    "organic-growth",
			Type:  "opportunity",
			Title: "Boost Organic Acquisition",
			Description: fmt.Sprintf("Only %.1f%% of installs are organic. "+
				"Invest in App Store Optimization, encourage user reviews, and implement referral programs to reduce dependency on paid channels.",
				organicRate),
			Impact:          "medium",
			ActionRequired:  true,
			Priority:        "medium",
			ExpectedOutcome: "Increase organic rate to 50%+",
			Timeframe:       "3 months",
			Timestamp:       timestamp,
		})
	}

	if len(insights) == 0 {
		insights = append(insights, models.AIInsight{
			ID:    "general-optimization",
			Type:  "recommendation",
			Title: "Continue Optimization",
			Description: "Your app performance shows good potential. Focus on scaling successful campaigns, " +
				"improving user onboarding, and expanding to new geographic markets to accelerate growth.",
			Impact:          "medium",
			ActionRequired:  false,
			Priority:        "medium",
			ExpectedOutcome: "Sustained growth trajectory",
			Timeframe:       "1 month",
			Timestamp:       timestamp,
		})
	}

	return insights
}

func (s *aiService) GenerateContentSuggestions(ctx context.Context, appData *models.AppsFlyerMetrics) []string {
	topCountry := "Global"
	if len(appData.TopCountries) > 0 {
		topCountry = appData.TopCountries[0].Country
	}

	prompt := fmt.Sprintf(`Based on the following app performance data, suggest 5 specific Instagram content ideas that could drive app downloads:

- App has %d installs
- Top country: %s
- Retention rate: %.1f%%

Provide suggestions as a JSON array of strings, each being a specific, actionable content idea.`,
		appData.TotalInstalls, topCountry, appData.RetentionDay30)

	content, err := s.chatCompletion(ctx, prompt, 0.8, 800)
	if err != nil {
		slog.Info("content suggestion generation failed, using fallback", "error", err.Error())
		return fallbackContentIdeas()
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(content), &suggestions); err != nil || len(suggestions) == 0 {
		return fallbackContentIdeas()
	}
	return suggestions
}

func fallbackContentIdeas() []string {
	return []string{
		"Share user success stories and testimonials",
		"Create behind-the-scenes app development content",
		"Post feature highlights with real user scenarios",
		"Share industry tips and educational content",
		"Create engaging polls about user preferences",
	}
}

func (s *aiService) GenerateMarketingStrategy(ctx context.Context, appData *models.AppsFlyerMetrics) string {
	prompt := fmt.Sprintf(`Create a comprehensive marketing strategy for a mobile app with the following performance:

- Total Installs: %d
- CPI: $%.2f
- Retention (Day 30): %.1f%%
- ROAS: %.2f

Provide a detailed 3-month marketing strategy with sections for:
1. Immediate Actions (Week 1-2)
2. Short-term Strategy (Month 1)
3. Medium-term Strategy (Month 2-3)
4. Budget Allocation
5. Success Metrics`,
		appData.TotalInstalls, appData.AverageCPI, appData.RetentionDay30, appData.ROAS)

	content, err := s.chatCompletion(ctx, prompt, 0.6, 1500)
	if err != nil {
		slog.Info("strategy generation failed", "error", err.Error())
		return "Unable to generate marketing strategy at this time."
	}
	return content
}

func (s *aiService) GenerateRecommendations(ctx context.Context, posts []models.InstagramPost) ([]string, error) {
	if len(posts) == 0 {
		return nil, errors.New("no posts data")
	}

	var sb strings.Builder
	sb.WriteString("Analyze these Instagram post performance metrics and provide 5 specific, actionable recommendations for improving engagement:\n")
	for i, p := range posts {
		caption := p.Caption
		if len(caption) > 100 {
			caption = caption[:100] + "..."
		}
		fmt.Fprintf(&sb, "\nPost %d:\n- Type: %s\n- Likes: %d\n- Comments: %d\n- Caption: %s\n",
			i+1, p.MediaType, p.LikeCount, p.CommentsCount, caption)
	}
	sb.WriteString("\nProvide recommendations in JSON array format: [\"recommendation 1\", \"recommendation 2\", ...]")

	content, err := s.chatCompletion(ctx, sb.String(), 0.7, 500)
	if err != nil {
		return nil, err
	}

	var recommendations []string
	if err := json.Unmarshal([]byte(content), &recommendations); err != nil {
		return nil, fmt.Errorf("error parsing recommendations: %w", err)
	}
	return recommendations, nil
}

func (s *aiService) chatCompletion(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if s.cfg.OpenAIAPIKey == "" {
		return "", errors.New("OPENAI_API_KEY is not configured")
	}

	reqBody := transfer.ChatCompletionRequest{
		Model:       openAIModel,
		Messages:    []transfer.ChatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var result transfer.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("provider error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", errors.New("no completion returned")
	}

	return result.Choices[0].Message.Content, nil
}
