package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/models"
)

func testInstagramConfig() config.Config {
	return config.Config{
		Instagram: config.Instagram{
			AppID:             "app-id",
			AppSecret:         "app-secret",
			RedirectURI:       "https://example.com/callback",
			AccessToken:       "test-token",
			BusinessAccountID: "17890",
		},
		Publish: config.Publish{
			ImagePublishDelay: time.Millisecond,
			PollInterval:      time.Millisecond,
			MaxPollAttempts:   5,
		},
	}
}

func newTestInstagramService(t *testing.T, handler http.HandlerFunc) *instagramService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &instagramService{
		cfg:     testInstagramConfig(),
		client:  server.Client(),
		baseURL: server.URL,
	}
}

func TestPublishImage(t *testing.T) {
	var containerCreated atomic.Bool
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/media"):
			var payload map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload["image_url"] != "https://cdn.example.com/photo.jpg" {
				t.Errorf("unexpected image_url: %v", payload["image_url"])
			}
			if _, ok := payload["media_type"]; ok {
				t.Error("image payload must not set media_type")
			}
			containerCreated.Store(true)
			json.NewEncoder(w).Encode(map[string]string{"id": "container-1"})
		case strings.HasSuffix(r.URL.Path, "/media_publish"):
			if !containerCreated.Load() {
				t.Error("publish called before container creation")
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "post-1"})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	})

	job := &models.PublishJob{
		MediaURL:  "https://cdn.example.com/photo.jpg",
		Caption:   "hello",
		MediaKind: models.MediaKindImage,
	}
	if err := svc.Publish(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if job.State != models.JobStatePublished {
		t.Errorf("state = %s, want %s", job.State, models.JobStatePublished)
	}
	if job.PostID != "post-1" {
		t.Errorf("postID = %s, want post-1", job.PostID)
	}
	if job.ContainerID != "container-1" {
		t.Errorf("containerID = %s, want container-1", job.ContainerID)
	}
}

func TestPublishVideoPollsUntilFinished(t *testing.T) {
	var statusChecks atomic.Int32
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/media"):
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["media_type"] != "REELS" {
				t.Errorf("media_type = %v, want REELS", payload["media_type"])
			}
			if payload["video_url"] != "https://cdn.example.com/clip.mp4" {
				t.Errorf("unexpected video_url: %v", payload["video_url"])
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "container-2"})
		case strings.HasSuffix(r.URL.Path, "/media_publish"):
			json.NewEncoder(w).Encode(map[string]string{"id": "post-2"})
		case r.URL.Query().Get("fields") == "status_code":
			status := "IN_PROGRESS"
			if statusChecks.Add(1) >= 3 {
				status = "FINISHED"
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "container-2", "status_code": status})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	})

	job := &models.PublishJob{
		MediaURL:  "https://cdn.example.com/clip.mp4",
		MediaKind: models.MediaKindVideo,
	}
	if err := svc.Publish(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if job.State != models.JobStatePublished {
		t.Errorf("state = %s, want %s", job.State, models.JobStatePublished)
	}
	if got := statusChecks.Load(); got != 3 {
		t.Errorf("status checks = %d, want 3", got)
	}
}

func TestPublishVideoProcessingTimeout(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/media") {
			json.NewEncoder(w).Encode(map[string]string{"id": "container-3"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "container-3", "status_code": "IN_PROGRESS"})
	})
	svc.cfg.Publish.MaxPollAttempts = 3

	job := &models.PublishJob{
		MediaURL:  "https://cdn.example.com/clip.mp4",
		MediaKind: models.MediaKindVideo,
	}
	err := svc.Publish(context.Background(), job)
	if !errors.Is(err, ErrProcessingTimeout) {
		t.Fatalf("err = %v, want ErrProcessingTimeout", err)
	}
	if job.State != models.JobStateFailed {
		t.Errorf("state = %s, want %s", job.State, models.JobStateFailed)
	}
	if job.Error == "" {
		t.Error("job.Error is empty")
	}
}

func TestPublishVideoProcessingError(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/media") {
			json.NewEncoder(w).Encode(map[string]string{"id": "container-4"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "container-4", "status_code": "ERROR"})
	})

	job := &models.PublishJob{
		MediaURL:  "https://cdn.example.com/clip.mp4",
		MediaKind: models.MediaKindVideo,
	}
	err := svc.Publish(context.Background(), job)
	if err == nil || !strings.Contains(err.Error(), "processing failed") {
		t.Fatalf("err = %v, want processing failure", err)
	}
	if job.State != models.JobStateFailed {
		t.Errorf("state = %s, want %s", job.State, models.JobStateFailed)
	}
}

func TestPublishRejectsLoopbackURLs(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})

	for _, mediaURL := range []string{
		"http://localhost:3000/uploads/a.jpg",
		"http://127.0.0.1/uploads/a.jpg",
		"http://[::1]:8080/a.jpg",
	} {
		job := &models.PublishJob{MediaURL: mediaURL, MediaKind: models.MediaKindImage}
		err := svc.Publish(context.Background(), job)
		if err == nil {
			t.Errorf("Publish(%s) succeeded, want rejection", mediaURL)
			continue
		}
		if job.State != models.JobStateFailed {
			t.Errorf("Publish(%s) state = %s, want %s", mediaURL, job.State, models.JobStateFailed)
		}
	}
}

func TestPublishErrorHints(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		subcode  int
		wantHint string
	}{
		{"unreachable media", 9004, 0, "publicly reachable"},
		{"oversized media", 36000, 0, "too large"},
		{"bad aspect ratio", 36003, 0, "aspect ratio"},
		{"bad video format", 352, 0, "MP4"},
		{"subcode format", 100, 2207026, "MP4"},
		{"automation block", 100, 2207051, "automation policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"error":{"message":"The request failed","code":%d,"error_subcode":%d}}`,
					tt.code, tt.subcode)
			})

			job := &models.PublishJob{
				MediaURL:  "https://cdn.example.com/a.jpg",
				MediaKind: models.MediaKindImage,
			}
			err := svc.Publish(context.Background(), job)
			if err == nil {
				t.Fatal("Publish succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantHint) {
				t.Errorf("error %q does not contain hint %q", err.Error(), tt.wantHint)
			}
			if !strings.Contains(err.Error(), "The request failed") {
				t.Errorf("error %q lost the provider message", err.Error())
			}
		})
	}
}

func TestPublishCancelledContext(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/media") {
			json.NewEncoder(w).Encode(map[string]string{"id": "container-5"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "container-5", "status_code": "IN_PROGRESS"})
	})
	svc.cfg.Publish.PollInterval = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	job := &models.PublishJob{
		MediaURL:  "https://cdn.example.com/clip.mp4",
		MediaKind: models.MediaKindVideo,
	}
	err := svc.Publish(ctx, job)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if job.State != models.JobStateFailed {
		t.Errorf("state = %s, want %s", job.State, models.JobStateFailed)
	}
}

func TestPublishWithoutCredentials(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	svc.cfg.Instagram.AccessToken = ""

	job := &models.PublishJob{MediaURL: "https://cdn.example.com/a.jpg"}
	if err := svc.Publish(context.Background(), job); err == nil {
		t.Fatal("Publish succeeded without credentials")
	}
	if job.State != models.JobStateFailed {
		t.Errorf("state = %s, want %s", job.State, models.JobStateFailed)
	}
}

func TestDeletePost(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	if err := svc.DeletePost(context.Background(), "post-1"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
}

func TestDeletePostNotConfirmed(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": false})
	})

	if err := svc.DeletePost(context.Background(), "post-1"); err == nil {
		t.Fatal("DeletePost succeeded, want error")
	}
}

func TestRecentPosts(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"p1","caption":"one","like_count":10,"comments_count":2},{"id":"p2","caption":"two","like_count":4,"comments_count":1}]}`)
	})

	posts, err := svc.RecentPosts(context.Background())
	if err != nil {
		t.Fatalf("RecentPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if posts[0].EngagementRate != 12 {
		t.Errorf("engagement = %v, want 12", posts[0].EngagementRate)
	}
}

func TestExchangeCodeForToken(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("grant_type") {
		case "authorization_code":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "short-token"})
		case "fb_exchange_token":
			if got := r.URL.Query().Get("fb_exchange_token"); got != "short-token" {
				t.Errorf("fb_exchange_token = %s, want short-token", got)
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "long-token"})
		default:
			t.Errorf("unexpected grant_type: %s", r.URL.Query().Get("grant_type"))
		}
	})

	token, err := svc.ExchangeCodeForToken(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCodeForToken: %v", err)
	}
	if token != "long-token" {
		t.Errorf("token = %s, want long-token", token)
	}
}

func TestAccountInsights(t *testing.T) {
	svc := newTestInstagramService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"name":"reach","values":[{"value":120}]},{"name":"impressions","values":[]}]}`)
	})

	insights, err := svc.AccountInsights(context.Background())
	if err != nil {
		t.Fatalf("AccountInsights: %v", err)
	}
	if insights["reach"] != 120 {
		t.Errorf("reach = %d, want 120", insights["reach"])
	}
	if v, ok := insights["impressions"]; !ok || v != 0 {
		t.Errorf("impressions = %d (present=%v), want 0", v, ok)
	}
}
