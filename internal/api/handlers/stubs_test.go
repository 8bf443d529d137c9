package handlers

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/growmetrics/marketing-api/internal/models"
)

type instagramStub struct {
	publishErr error
	published  []*models.PublishJob
	posts      []models.InstagramPost
	postsErr   error
	deleted    []string
	deleteErr  error
	insights   map[string]int64
}

func (s *instagramStub) Publish(ctx context.Context, job *models.PublishJob) error {
	s.published = append(s.published, job)
	if s.publishErr != nil {
		job.State = models.JobStateFailed
		job.Error = s.publishErr.Error()
		return s.publishErr
	}
	job.State = models.JobStatePublished
	job.PostID = "post-1"
	return nil
}

func (s *instagramStub) DeletePost(ctx context.Context, postID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, postID)
	return nil
}

func (s *instagramStub) RecentPosts(ctx context.Context) ([]models.InstagramPost, error) {
	return s.posts, s.postsErr
}

func (s *instagramStub) AccountInsights(ctx context.Context) (map[string]int64, error) {
	return s.insights, nil
}

func (s *instagramStub) MediaInsights(ctx context.Context, mediaID string) (map[string]int64, error) {
	return map[string]int64{"reach": 10}, nil
}

func (s *instagramStub) GetAuthURL() (string, error) {
	return "https://www.facebook.com/v18.0/dialog/oauth?client_id=x", nil
}

func (s *instagramStub) ExchangeCodeForToken(ctx context.Context, code string) (string, error) {
	if code == "bad" {
		return "", errors.New("invalid code")
	}
	return "long-token", nil
}

type aiStub struct {
	suggestions     *models.AISuggestions
	insights        []models.AIInsight
	ideas           []string
	strategy        string
	recommendations []string
	recErr          error
}

func (s *aiStub) GenerateCaptionSuggestions(ctx context.Context, fileName, postType string) *models.AISuggestions {
	return s.suggestions
}

func (s *aiStub) GenerateInsights(ctx context.Context, appData *models.AppsFlyerMetrics) []models.AIInsight {
	return s.insights
}

func (s *aiStub) GenerateContentSuggestions(ctx context.Context, appData *models.AppsFlyerMetrics) []string {
	return s.ideas
}

func (s *aiStub) GenerateMarketingStrategy(ctx context.Context, appData *models.AppsFlyerMetrics) string {
	return s.strategy
}

func (s *aiStub) GenerateRecommendations(ctx context.Context, posts []models.InstagramPost) ([]string, error) {
	return s.recommendations, s.recErr
}

type appsFlyerStub struct {
	metrics *models.AppsFlyerMetrics
	err     error
}

func (s *appsFlyerStub) GetMetrics(ctx context.Context, appID string, days int) (*models.AppsFlyerMetrics, error) {
	return s.metrics, s.err
}

type relayStub struct {
	hostedURL string
	err       error
	filenames []string
	sizes     []int
}

func (s *relayStub) UploadMedia(ctx context.Context, data []byte, filename, mediaKind string) (string, error) {
	s.filenames = append(s.filenames, filename)
	s.sizes = append(s.sizes, len(data))
	if s.err != nil {
		return "", s.err
	}
	return s.hostedURL, nil
}

type mediaStub struct {
	assets  []*models.MediaAsset
	content []byte
}

func (s *mediaStub) Upload(ctx context.Context, file *multipart.FileHeader) (*models.MediaAsset, error) {
	if len(s.assets) == 0 {
		return nil, errors.New("upload failed")
	}
	return s.assets[0], nil
}

func (s *mediaStub) List(ctx context.Context) ([]*models.MediaAsset, error) {
	return s.assets, nil
}

func (s *mediaStub) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	for _, a := range s.assets {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *mediaStub) ReadContent(ctx context.Context, id string) ([]byte, *models.MediaAsset, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s.content, asset, nil
}

func (s *mediaStub) Remove(ctx context.Context, id string) error {
	for _, a := range s.assets {
		if a.ID == id {
			return nil
		}
	}
	return errors.New("not found")
}
