package service

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/models"
)

const cloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// MediaRelay stages media bytes on a publicly fetchable host and returns the
// hosted URL.
type MediaRelay interface {
	UploadMedia(ctx context.Context, data []byte, filename, mediaKind string) (string, error)
}

// CloudinaryService re-uploads stored media to Cloudinary so the publish API
// gets a publicly fetchable URL. Instagram refuses to fetch from hosts it
// cannot reach, so this hop is mandatory for locally stored uploads.
type CloudinaryService struct {
	cfg     config.Cloudinary
	client  *http.Client
	baseURL string
	now     func() time.Time
}

func NewCloudinaryService(cfg config.Cloudinary) *CloudinaryService {
	return &CloudinaryService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 2 * time.Minute},
		baseURL: cloudinaryBaseURL,
		now:     time.Now,
	}
}

// UploadMedia uploads raw bytes under the given filename and returns the
// hosted HTTPS URL. The request is signed per call because the signature
// embeds the current Unix timestamp.
func (s *CloudinaryService) UploadMedia(ctx context.Context, data []byte, filename, mediaKind string) (string, error) {
	if s.cfg.CloudName == "" || s.cfg.APIKey == "" || s.cfg.APISecret == "" {
		return "", errors.New("Cloudinary credentials not configured (CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET)")
	}

	resourceType := "image"
	if mediaKind == models.MediaKindVideo {
		resourceType = "video"
	}

	timestamp := s.now().Unix()
	signature := s.sign(timestamp)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("error building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("error writing file content: %w", err)
	}
	writer.WriteField("timestamp", fmt.Sprintf("%d", timestamp))
	writer.WriteField("api_key", s.cfg.APIKey)
	writer.WriteField("signature", signature)
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("error finalizing upload form: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/%s/%s/upload", s.baseURL, s.cfg.CloudName, resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		Error     *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if result.Error != nil {
		return "", errors.New(result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", errors.New("no URL returned from Cloudinary")
	}

	return result.SecureURL, nil
}

// sign computes the SHA-1 request signature over the timestamped parameter
// string and the API secret, per Cloudinary's signed-upload scheme.
func (s *CloudinaryService) sign(timestamp int64) string {
	toSign := fmt.Sprintf("timestamp=%d%s", timestamp, s.cfg.APISecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(toSign)))
}
