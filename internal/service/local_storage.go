package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// localStorage keeps uploads in a directory on disk. The files are served by
// the fiber static route under /uploads.
type localStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (MediaStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload directory: %w", err)
	}
	return &localStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (l *localStorage) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	path := filepath.Join(l.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing file: %w", err)
	}
	return l.URL(name), nil
}

func (l *localStorage) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, filepath.Base(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("media %s not found", name)
		}
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (l *localStorage) List(ctx context.Context) ([]StoredObject, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("error reading upload directory: %w", err)
	}

	objects := make([]StoredObject, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, StoredObject{
			Name:      entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	return objects, nil
}

func (l *localStorage) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(l.dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return fmt.Errorf("media %s not found", name)
	}
	return err
}

func (l *localStorage) URL(name string) string {
	return fmt.Sprintf("%s/uploads/%s", l.baseURL, name)
}
