package models

import "time"

type MediaAsset struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	MediaKind string    `json:"media_kind"` // image, video
	FileSize  int64     `json:"file_size"`
	FileURL   string    `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)
