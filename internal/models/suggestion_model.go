package models

// AISuggestions is the fixed-shape reply of the caption advisor.
type AISuggestions struct {
	Captions             []string `json:"captions"`
	Hashtags             []string `json:"hashtags"`
	BestPostingTime      string   `json:"bestPostingTime"`
	TargetAudience       string   `json:"targetAudience"`
	EngagementPrediction string   `json:"engagementPrediction"` // high, medium, low
}

type SuggestionMetrics struct {
	TotalInstalls int     `json:"totalInstalls"`
	TopCountry    string  `json:"topCountry"`
	RetentionRate float64 `json:"retentionRate"`
}

// ContentSuggestion is one entry of the daily suggestion batch shown on the
// dashboard.
type ContentSuggestion struct {
	ID                   string             `json:"id"`
	Concept              string             `json:"concept"`
	Caption              string             `json:"caption"`
	VisualRecommendation string             `json:"visualRecommendation"`
	BestPostingTime      string             `json:"bestPostingTime"`
	TargetAudience       string             `json:"targetAudience"`
	EngagementPrediction string             `json:"engagementPrediction"`
	BasedOnMetrics       *SuggestionMetrics `json:"basedOnMetrics,omitempty"`
}
