package queue

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

type instagramStub struct {
	published []*models.PublishJob
	publishFn func(job *models.PublishJob) error
}

func (s *instagramStub) Publish(ctx context.Context, job *models.PublishJob) error {
	s.published = append(s.published, job)
	if s.publishFn != nil {
		return s.publishFn(job)
	}
	job.State = models.JobStatePublished
	job.PostID = "post-1"
	return nil
}

func (s *instagramStub) DeletePost(ctx context.Context, postID string) error { return nil }
func (s *instagramStub) RecentPosts(ctx context.Context) ([]models.InstagramPost, error) {
	return nil, nil
}
func (s *instagramStub) AccountInsights(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}
func (s *instagramStub) MediaInsights(ctx context.Context, mediaID string) (map[string]int64, error) {
	return nil, nil
}
func (s *instagramStub) GetAuthURL() (string, error) { return "", nil }
func (s *instagramStub) ExchangeCodeForToken(ctx context.Context, code string) (string, error) {
	return "", nil
}

type driveStub struct {
	shared []string
}

func (s *driveStub) ListMedia(ctx context.Context) ([]transfer.ContentItem, error) { return nil, nil }
func (s *driveStub) EnsurePublic(ctx context.Context, fileID string) error {
	s.shared = append(s.shared, fileID)
	return nil
}
func (s *driveStub) PublicURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}

type relayStub struct {
	hostedURL string
	err       error
	filenames []string
}

func (s *relayStub) UploadMedia(ctx context.Context, data []byte, filename, mediaKind string) (string, error) {
	s.filenames = append(s.filenames, filename)
	if s.err != nil {
		return "", s.err
	}
	return s.hostedURL, nil
}

type mediaStub struct {
	asset   *models.MediaAsset
	content []byte
}

func (s *mediaStub) Upload(ctx context.Context, file *multipart.FileHeader) (*models.MediaAsset, error) {
	return nil, errors.New("not implemented")
}

func (s *mediaStub) List(ctx context.Context) ([]*models.MediaAsset, error) {
	return []*models.MediaAsset{s.asset}, nil
}

func (s *mediaStub) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	if s.asset != nil && s.asset.ID == id {
		return s.asset, nil
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

func (s *mediaStub) Remove(ctx context.Context, id string) error { return nil }

func TestHandlePublishPostTaskDriveFile(t *testing.T) {
	ig := &instagramStub{}
	dr := &driveStub{}
	q := NewQueue(ig, nil, nil, dr)

	payload, _ := json.Marshal(PublishPostPayload{
		FileID:    "file-1",
		Caption:   "launch day",
		MediaKind: models.MediaKindImage,
	})
	task := asynq.NewTask(TaskTypePublishPost, payload)

	if err := q.HandlePublishPostTask(context.Background(), task); err != nil {
		t.Fatalf("HandlePublishPostTask: %v", err)
	}

	if len(dr.shared) != 1 || dr.shared[0] != "file-1" {
		t.Errorf("drive file not shared before publish: %v", dr.shared)
	}
	if len(ig.published) != 1 {
		t.Fatalf("published %d jobs, want 1", len(ig.published))
	}
	job := ig.published[0]
	if job.MediaURL != "https://drive.google.com/uc?export=view&id=file-1" {
		t.Errorf("mediaURL = %s", job.MediaURL)
	}
	if job.Caption != "launch day" {
		t.Errorf("caption = %s", job.Caption)
	}
}

func TestHandlePublishPostTaskStoredAsset(t *testing.T) {
	ig := &instagramStub{}
	cl := &relayStub{hostedURL: "https://res.cloudinary.com/demo/image/upload/v1/asset-1.jpg"}
	ms := &mediaStub{
		asset:   &models.MediaAsset{ID: "asset-1", FileName: "asset-1.jpg", MediaKind: models.MediaKindImage},
		content: []byte{0x89, 'P', 'N', 'G'},
	}
	q := NewQueue(ig, cl, ms, nil)

	payload, _ := json.Marshal(PublishPostPayload{
		AssetID: "asset-1",
		Caption: "from the queue",
	})
	task := asynq.NewTask(TaskTypePublishPost, payload)

	if err := q.HandlePublishPostTask(context.Background(), task); err != nil {
		t.Fatalf("HandlePublishPostTask: %v", err)
	}

	if len(cl.filenames) != 1 || cl.filenames[0] != "asset-1.jpg" {
		t.Errorf("staged files = %v", cl.filenames)
	}
	if len(ig.published) != 1 {
		t.Fatalf("published %d jobs, want 1", len(ig.published))
	}
	job := ig.published[0]
	if job.MediaURL != cl.hostedURL {
		t.Errorf("mediaURL = %s, want the staged URL", job.MediaURL)
	}
	if job.MediaKind != models.MediaKindImage {
		t.Errorf("mediaKind = %s", job.MediaKind)
	}
	if job.PostID == "" {
		t.Error("post id must be set after publish")
	}
}

func TestHandlePublishPostTaskStagingFailure(t *testing.T) {
	ig := &instagramStub{}
	cl := &relayStub{err: errors.New("Invalid Signature")}
	ms := &mediaStub{
		asset:   &models.MediaAsset{ID: "asset-1", FileName: "asset-1.jpg", MediaKind: models.MediaKindImage},
		content: []byte{0xff},
	}
	q := NewQueue(ig, cl, ms, nil)

	err := q.PublishPost(context.Background(), PublishPostPayload{AssetID: "asset-1"})
	if err == nil {
		t.Fatal("staging failure must surface so asynq retries")
	}
	if len(ig.published) != 0 {
		t.Error("nothing should be published when staging fails")
	}
}

func TestHandlePublishPostTaskDirectURL(t *testing.T) {
	ig := &instagramStub{}
	q := NewQueue(ig, nil, nil, nil)

	err := q.PublishPost(context.Background(), PublishPostPayload{
		MediaURL:  "https://cdn.example.com/clip.mp4",
		MediaKind: models.MediaKindVideo,
	})
	if err != nil {
		t.Fatalf("PublishPost: %v", err)
	}
	if len(ig.published) != 1 || ig.published[0].MediaKind != models.MediaKindVideo {
		t.Errorf("published = %+v", ig.published)
	}
}

func TestHandlePublishPostTaskEmptyPayload(t *testing.T) {
	ig := &instagramStub{}
	q := NewQueue(ig, nil, nil, nil)

	if err := q.PublishPost(context.Background(), PublishPostPayload{}); err == nil {
		t.Fatal("empty payload must fail")
	}
	if len(ig.published) != 0 {
		t.Error("nothing should be published for an empty payload")
	}
}

func TestHandlePublishPostTaskPropagatesError(t *testing.T) {
	ig := &instagramStub{publishFn: func(job *models.PublishJob) error {
		job.State = models.JobStateFailed
		return context.DeadlineExceeded
	}}
	q := NewQueue(ig, nil, nil, nil)

	payload, _ := json.Marshal(PublishPostPayload{MediaURL: "https://cdn.example.com/a.jpg"})
	task := asynq.NewTask(TaskTypePublishPost, payload)

	if err := q.HandlePublishPostTask(context.Background(), task); err == nil {
		t.Fatal("handler must surface publish errors so asynq retries")
	}
}
