package queue

import (
	"github.com/growmetrics/marketing-api/internal/service"
)

type Queue struct {
	ig service.InstagramService
	cl service.MediaRelay
	ms service.MediaService
	dr service.DriveService
}

func NewQueue(
	ig service.InstagramService,
	cl service.MediaRelay,
	ms service.MediaService,
	dr service.DriveService) *Queue {
	return &Queue{
		ig: ig,
		cl: cl,
		ms: ms,
		dr: dr,
	}
}

const TaskTypePublishPost = "publish:post"

// PublishPostPayload names the media to publish. Exactly one of AssetID,
// FileID, or MediaURL is expected: AssetID for locally uploaded media (relayed
// through Cloudinary first), FileID for approved Drive content, MediaURL for
// media already on a public host.
type PublishPostPayload struct {
	AssetID   string `json:"asset_id,omitempty"`
	FileID    string `json:"file_id,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`
	Caption   string `json:"caption"`
	MediaKind string `json:"media_kind"`
}
