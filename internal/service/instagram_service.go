package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/transfer"
	"github.com/growmetrics/marketing-api/pkg/utils"
)

const graphBaseURL = "https://graph.facebook.com/v18.0"

type InstagramService interface {
	Publish(ctx context.Context, job *models.PublishJob) error
	DeletePost(ctx context.Context, postID string) error
	RecentPosts(ctx context.Context) ([]models.InstagramPost, error)
	AccountInsights(ctx context.Context) (map[string]int64, error)
	MediaInsights(ctx context.Context, mediaID string) (map[string]int64, error)
	GetAuthURL() (string, error)
	ExchangeCodeForToken(ctx context.Context, code string) (string, error)
}

type instagramService struct {
	cfg     config.Config
	client  *http.Client
	baseURL string
}

func NewInstagramService(cfg config.Config) InstagramService {
	return &instagramService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: graphBaseURL,
	}
}

// GraphAPIError carries the provider's error envelope. Its message includes a
// troubleshooting hint when the error code maps to a known failure mode.
type GraphAPIError struct {
	Graph transfer.GraphError
}

func (e *GraphAPIError) Error() string {
	msg := e.Graph.Message
	if hint := hintFor(&e.Graph); hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, hint)
	}
	return msg
}

// Known Graph API error codes for media publishing, mapped to hints shown to
// the dashboard user. Classification is by code, not message text, since the
// message wording depends on the app locale.
var publishHints = map[int]string{
	9004:  "Instagram could not download the media. The URL must be publicly reachable without authentication.",
	36000: "The media file is too large. Images must be under 8MB.",
	36003: "The media aspect ratio is outside the accepted range (4:5 to 1.91:1).",
	352:   "The video format is not supported. Use MP4 (H.264 + AAC).",
}

var publishSubcodeHints = map[int]string{
	2207026: "The video format is not supported. Use MP4 (H.264 + AAC).",
	2207051: "Publishing was blocked by Instagram's automation policy. Try again later.",
}

func hintFor(ge *transfer.GraphError) string {
	if hint, ok := publishSubcodeHints[ge.ErrorSubcode]; ok {
		return hint
	}
	if hint, ok := publishHints[ge.Code]; ok {
		return hint
	}
	return ""
}

// ErrProcessingTimeout reports that a video container did not finish
// processing within the configured number of status polls.
var ErrProcessingTimeout = errors.New("video processing timed out")

// Publish drives the container-create / process-wait / publish flow and
// records state transitions on the job. Every failure is terminal; the job
// ends in JobStatePublished or JobStateFailed.
func (s *instagramService) Publish(ctx context.Context, job *models.PublishJob) error {
	job.State = models.JobStateCreated

	if s.cfg.Instagram.AccessToken == "" || s.cfg.Instagram.BusinessAccountID == "" {
		return s.fail(job, errors.New("missing INSTAGRAM_ACCESS_TOKEN or INSTAGRAM_BUSINESS_ACCOUNT_ID"))
	}

	// Instagram fetches the media itself, so loopback URLs can never work.
	// Reject them before any network call.
	if err := validatePublicURL(job.MediaURL); err != nil {
		return s.fail(job, err)
	}

	containerID, err := s.createContainer(ctx, job)
	if err != nil {
		return s.fail(job, err)
	}
	job.ContainerID = containerID

	if job.MediaKind == models.MediaKindVideo {
		job.State = models.JobStateAwaitingProcessing
		if err := s.waitForProcessing(ctx, containerID); err != nil {
			return s.fail(job, err)
		}
	} else {
		// Give Instagram a moment to ingest the image before publishing;
		// publishing immediately intermittently fails with a transient error.
		select {
		case <-ctx.Done():
			return s.fail(job, ctx.Err())
		case <-time.After(s.cfg.Publish.ImagePublishDelay):
		}
	}

	postID, err := s.publishContainer(ctx, containerID)
	if err != nil {
		return s.fail(job, err)
	}

	job.State = models.JobStatePublished
	job.PostID = postID
	return nil
}

func (s *instagramService) fail(job *models.PublishJob, err error) error {
	job.State = models.JobStateFailed
	job.Error = err.Error()
	slog.Info("publish failed", "state", job.State, "error", err.Error())
	return err
}

func validatePublicURL(mediaURL string) error {
	u, err := url.Parse(mediaURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("media URL is not valid: %s", mediaURL)
	}

	host := u.Hostname()
	if host == "localhost" {
		return errors.New("media URL points to localhost; Instagram cannot fetch it. Upload the file so it gets a public URL")
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return errors.New("media URL points to a loopback address; Instagram cannot fetch it. Upload the file so it gets a public URL")
	}
	return nil
}

func (s *instagramService) createContainer(ctx context.Context, job *models.PublishJob) (string, error) {
	payload := map[string]interface{}{
		"caption":      job.Caption,
		"access_token": s.cfg.Instagram.AccessToken,
	}
	if job.MediaKind == models.MediaKindVideo {
		payload["video_url"] = job.MediaURL
		payload["media_type"] = "REELS"
	} else {
		payload["image_url"] = job.MediaURL
	}

	resp, err := s.postGraph(ctx, fmt.Sprintf("/%s/media", s.cfg.Instagram.BusinessAccountID), payload)
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}
	return resp.ID, nil
}

// waitForProcessing polls the container status at a fixed interval for a
// bounded number of attempts. Video containers stay IN_PROGRESS while
// Instagram transcodes the upload.
func (s *instagramService) waitForProcessing(ctx context.Context, containerID string) error {
	for attempt := 0; attempt < s.cfg.Publish.MaxPollAttempts; attempt++ {
		status, err := s.containerStatus(ctx, containerID)
		if err != nil {
			return err
		}

		switch status {
		case "FINISHED":
			return nil
		case "ERROR":
			return errors.New("video processing failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Publish.PollInterval):
		}
	}

	return fmt.Errorf("%w after %d checks", ErrProcessingTimeout, s.cfg.Publish.MaxPollAttempts)
}

func (s *instagramService) containerStatus(ctx context.Context, containerID string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s",
		s.baseURL, containerID, url.QueryEscape(s.cfg.Instagram.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("container status request: %w", err)
	}
	defer resp.Body.Close()

	var status transfer.ContainerStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("error parsing status response: %w", err)
	}
	if status.Error != nil {
		return "", &GraphAPIError{Graph: *status.Error}
	}

	return status.StatusCode, nil
}

func (s *instagramService) publishContainer(ctx context.Context, containerID string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": s.cfg.Instagram.AccessToken,
	}

	resp, err := s.postGraph(ctx, fmt.Sprintf("/%s/media_publish", s.cfg.Instagram.BusinessAccountID), payload)
	if err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}
	return resp.ID, nil
}

func (s *instagramService) DeletePost(ctx context.Context, postID string) error {
	reqURL := fmt.Sprintf("%s/%s?access_token=%s",
		s.baseURL, postID, url.QueryEscape(s.cfg.Instagram.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool                `json:"success"`
		Error   *transfer.GraphError `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error parsing delete response: %w", err)
	}
	if result.Error != nil {
		return &GraphAPIError{Graph: *result.Error}
	}
	if !result.Success {
		return errors.New("Instagram did not confirm the deletion")
	}
	return nil
}

func (s *instagramService) RecentPosts(ctx context.Context) ([]models.InstagramPost, error) {
	reqURL := fmt.Sprintf("%s/%s/media?fields=id,caption,media_type,media_url,permalink,timestamp,like_count,comments_count&limit=25&access_token=%s",
		s.baseURL, s.cfg.Instagram.BusinessAccountID, url.QueryEscape(s.cfg.Instagram.AccessToken))

	var result struct {
		Data  []models.InstagramPost `json:"data"`
		Error *transfer.GraphError   `json:"error,omitempty"`
	}
	if err := s.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, &GraphAPIError{Graph: *result.Error}
	}

	for i := range result.Data {
		p := &result.Data[i]
		p.EngagementRate = float64(p.LikeCount + p.CommentsCount)
	}
	return result.Data, nil
}

func (s *instagramService) AccountInsights(ctx context.Context) (map[string]int64, error) {
	reqURL := fmt.Sprintf("%s/%s/insights?metric=impressions,reach,profile_views,follower_count&period=day&access_token=%s",
		s.baseURL, s.cfg.Instagram.BusinessAccountID, url.QueryEscape(s.cfg.Instagram.AccessToken))
	return s.fetchInsights(ctx, reqURL)
}

func (s *instagramService) MediaInsights(ctx context.Context, mediaID string) (map[string]int64, error) {
	reqURL := fmt.Sprintf("%s/%s/insights?metric=engagement,impressions,reach,saved&access_token=%s",
		s.baseURL, mediaID, url.QueryEscape(s.cfg.Instagram.AccessToken))
	return s.fetchInsights(ctx, reqURL)
}

func (s *instagramService) fetchInsights(ctx context.Context, reqURL string) (map[string]int64, error) {
	var result struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
		Error *transfer.GraphError `json:"error,omitempty"`
	}
	if err := s.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, &GraphAPIError{Graph: *result.Error}
	}

	insights := make(map[string]int64, len(result.Data))
	for _, metric := range result.Data {
		if len(metric.Values) > 0 {
			insights[metric.Name] = metric.Values[0].Value
		} else {
			insights[metric.Name] = 0
		}
	}
	return insights, nil
}

func (s *instagramService) GetAuthURL() (string, error) {
	state, err := utils.GenerateRandomKey(16)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client_id", s.cfg.Instagram.AppID)
	params.Set("redirect_uri", s.cfg.Instagram.RedirectURI)
	params.Set("scope", "pages_show_list,pages_read_engagement,business_management")
	params.Set("response_type", "code")
	params.Set("state", state)

	return "https://www.facebook.com/v18.0/dialog/oauth?" + params.Encode(), nil
}

// ExchangeCodeForToken trades an OAuth code for a short-lived token and then
// upgrades it to a long-lived one via fb_exchange_token.
func (s *instagramService) ExchangeCodeForToken(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code is empty")
	}

	shortToken, err := s.fetchToken(ctx, url.Values{
		"client_id":     {s.cfg.Instagram.AppID},
		"client_secret": {s.cfg.Instagram.AppSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {s.cfg.Instagram.RedirectURI},
		"code":          {code},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get short-lived token: %w", err)
	}

	longToken, err := s.fetchToken(ctx, url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {s.cfg.Instagram.AppID},
		"client_secret":     {s.cfg.Instagram.AppSecret},
		"fb_exchange_token": {shortToken},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get long-lived token: %w", err)
	}

	return longToken, nil
}

func (s *instagramService) fetchToken(ctx context.Context, params url.Values) (string, error) {
	var result struct {
		transfer.InstagramToken
		Error *transfer.GraphError `json:"error,omitempty"`
	}
	if err := s.getJSON(ctx, s.baseURL+"/oauth/access_token?"+params.Encode(), &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", &GraphAPIError{Graph: *result.Error}
	}
	if result.AccessToken == "" {
		return "", errors.New("no access token returned")
	}
	return result.AccessToken, nil
}

func (s *instagramService) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

func (s *instagramService) postGraph(ctx context.Context, endpoint string, payload map[string]interface{}) (*transfer.GraphResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var result transfer.GraphResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	if result.Error != nil {
		return nil, &GraphAPIError{Graph: *result.Error}
	}
	if result.ID == "" {
		return nil, errors.New("no media ID returned from Instagram")
	}

	return &result, nil
}
