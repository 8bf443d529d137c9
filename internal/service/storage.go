package service

import (
	"context"
	"time"
)

// StoredObject describes one object held by a media storage backend.
type StoredObject struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

// MediaStorage is the durable backend for uploaded media. Save must write the
// object exactly once and return a URL under which the object is served,
// public for object storage and server-local for disk storage.
type MediaStorage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]StoredObject, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}
