package models

type CountryInstalls struct {
	Country    string  `json:"country"`
	Installs   int     `json:"installs"`
	Percentage float64 `json:"percentage"`
}

type CampaignMetrics struct {
	Campaign string  `json:"campaign"`
	Installs int     `json:"installs"`
	Cost     float64 `json:"cost"`
	CPI      float64 `json:"cpi"`
	ROAS     float64 `json:"roas"`
}

type DailyMetrics struct {
	Date               string  `json:"date"`
	Installs           int     `json:"installs"`
	Revenue            float64 `json:"revenue"`
	OrganicInstalls    int     `json:"organicInstalls"`
	NonOrganicInstalls int     `json:"nonOrganicInstalls"`
}

type MediaSourceMetrics struct {
	MediaSource string  `json:"mediaSource"`
	Installs    int     `json:"installs"`
	Cost        float64 `json:"cost"`
	CPI         float64 `json:"cpi"`
	ROAS        float64 `json:"roas"`
}

// AppsFlyerMetrics is the aggregated attribution view served to the dashboard.
type AppsFlyerMetrics struct {
	TotalInstalls      int                  `json:"totalInstalls"`
	OrganicInstalls    int                  `json:"organicInstalls"`
	NonOrganicInstalls int                  `json:"nonOrganicInstalls"`
	TotalRevenue       float64              `json:"totalRevenue"`
	AverageCPI         float64              `json:"averageCPI"`
	RetentionDay1      float64              `json:"retentionDay1"`
	RetentionDay7      float64              `json:"retentionDay7"`
	RetentionDay30     float64              `json:"retentionDay30"`
	ROAS               float64              `json:"roas"`
	TopCountries       []CountryInstalls    `json:"topCountries"`
	TopCampaigns       []CampaignMetrics    `json:"topCampaigns"`
	DailyData          []DailyMetrics       `json:"dailyData"`
	MediaSourceData    []MediaSourceMetrics `json:"mediaSourceData"`
}

type InstagramPost struct {
	ID             string  `json:"id"`
	Caption        string  `json:"caption"`
	MediaType      string  `json:"media_type"`
	MediaURL       string  `json:"media_url"`
	Permalink      string  `json:"permalink"`
	Timestamp      string  `json:"timestamp"`
	LikeCount      int     `json:"like_count"`
	CommentsCount  int     `json:"comments_count"`
	EngagementRate float64 `json:"engagement_rate"`
}

type InstagramStats struct {
	TotalPosts    int     `json:"totalPosts"`
	AvgEngagement float64 `json:"avgEngagement"`
	TotalLikes    int     `json:"totalLikes"`
	TotalComments int     `json:"totalComments"`
}

// AnalyticsSnapshot is the payload assembled by the cron collection endpoint.
type AnalyticsSnapshot struct {
	AccountInsights map[string]int64 `json:"accountInsights"`
	MediaInsights   []MediaInsights  `json:"mediaInsights"`
	CollectedAt     string           `json:"collectedAt"`
}

type MediaInsights struct {
	ID        string           `json:"id"`
	Caption   string           `json:"caption"`
	Timestamp string           `json:"timestamp"`
	Metrics   map[string]int64 `json:"metrics"`
}
