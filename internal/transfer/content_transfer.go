package transfer

import (
	"encoding/json"

	"github.com/growmetrics/marketing-api/internal/models"
)

// ContentItem is one stageable media file from Google Drive.
type ContentItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	MimeType     string `json:"mimeType"`
	CreatedTime  string `json:"createdTime"`
	Size         int64  `json:"size"`
	Status       string `json:"status"` // draft, approved, posted
}

// ApproveRequest is the body of POST /api/content/approve.
type ApproveRequest struct {
	FileID        string `json:"file_id"`
	Caption       string `json:"caption"`
	MediaKind     string `json:"media_kind"`
	ScheduledTime string `json:"scheduled_time"` // 2006-01-02T15:04, optional
}

// SuggestionUpload is the body of POST /api/content/suggestions. Suggestions
// may arrive as a JSON string (automation tools send them that way) or as a
// parsed array; the handler decodes the raw message either way.
type SuggestionUpload struct {
	Suggestions    json.RawMessage           `json:"suggestions"`
	BasedOnMetrics *models.SuggestionMetrics `json:"basedOnMetrics"`
	GeneratedAt    string                    `json:"generatedAt"`
}

type LoginRequest struct {
	Password string `json:"password"`
}
