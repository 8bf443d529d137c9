package models

// PublishJob tracks one run of the Instagram publish flow. Jobs live only
// for the duration of the request (or queued task) that created them.
type PublishJob struct {
	MediaURL    string `json:"media_url"`
	Caption     string `json:"caption"`
	MediaKind   string `json:"media_kind"`
	ContainerID string `json:"container_id"`
	State       string `json:"state"`
	PostID      string `json:"post_id"`
	Error       string `json:"error,omitempty"`
}

const (
	JobStateCreated            = "created"
	JobStateAwaitingProcessing = "awaiting_processing"
	JobStatePublished          = "published"
	JobStateFailed             = "failed"
)
