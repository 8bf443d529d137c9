package models

type AIInsight struct {
	ID              string `json:"id"`
	Type            string `json:"type"` // recommendation, alert, trend, opportunity
	Title           string `json:"title"`
	Description     string `json:"description"`
	Impact          string `json:"impact"` // high, medium, low
	ActionRequired  bool   `json:"actionRequired"`
	Priority        string `json:"priority"` // urgent, high, medium, low
	ExpectedOutcome string `json:"expectedOutcome"`
	Timeframe       string `json:"timeframe"`
	Timestamp       string `json:"timestamp"`
}
