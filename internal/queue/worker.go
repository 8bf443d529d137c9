package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := q.PublishPost(ctx, payload); err != nil {
		log.Printf("Error publishing scheduled post: %v", err)
		return err
	}

	return nil
}

// PublishPost resolves the payload's media source to a public URL and drives
// the Instagram publish flow with it.
func (q *Queue) PublishPost(ctx context.Context, payload PublishPostPayload) error {
	mediaURL := payload.MediaURL
	mediaKind := payload.MediaKind

	switch {
	case payload.FileID != "":
		if q.dr == nil {
			return errors.New("drive is not configured")
		}
		if err := q.dr.EnsurePublic(ctx, payload.FileID); err != nil {
			return err
		}
		mediaURL = q.dr.PublicURL(payload.FileID)

	case payload.AssetID != "":
		data, asset, err := q.ms.ReadContent(ctx, payload.AssetID)
		if err != nil {
			return fmt.Errorf("error reading media asset %s: %w", payload.AssetID, err)
		}
		mediaURL, err = q.cl.UploadMedia(ctx, data, asset.FileName, asset.MediaKind)
		if err != nil {
			return fmt.Errorf("error staging media on cloudinary: %w", err)
		}
		if mediaKind == "" {
			mediaKind = asset.MediaKind
		}

	case mediaURL == "":
		return errors.New("publish payload names no media")
	}

	if mediaKind == "" {
		mediaKind = models.MediaKindImage
	}

	job := &models.PublishJob{
		MediaURL:  mediaURL,
		Caption:   payload.Caption,
		MediaKind: mediaKind,
	}
	if err := q.ig.Publish(ctx, job); err != nil {
		return err
	}

	log.Printf("Scheduled post published: %s", job.PostID)
	return nil
}
