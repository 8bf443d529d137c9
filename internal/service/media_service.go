package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"

	"github.com/growmetrics/marketing-api/internal/models"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type MediaService interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (*models.MediaAsset, error)
	List(ctx context.Context) ([]*models.MediaAsset, error)
	Get(ctx context.Context, id string) (*models.MediaAsset, error)
	ReadContent(ctx context.Context, id string) ([]byte, *models.MediaAsset, error)
	Remove(ctx context.Context, id string) error
}

type mediaService struct {
	storage MediaStorage
}

func NewMediaService(storage MediaStorage) MediaService {
	return &mediaService{storage: storage}
}

// Upload sniffs the content type from the file bytes, rejects anything that
// is not an image or video, and writes the file to storage exactly once under
// a generated name.
func (s *mediaService) Upload(ctx context.Context, file *multipart.FileHeader) (*models.MediaAsset, error) {
	if file == nil {
		err := errors.New("no file provided")
		slog.Info(err.Error())
		return nil, err
	}

	content, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, errors.New("unsupported file type")
	}

	mediaKind, err := mediaKindOf(kind.MIME.Value)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	name := id + "." + kind.Extension

	fileURL, err := s.storage.Save(ctx, name, data, kind.MIME.Value)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error saving file: %w", err)
	}

	return &models.MediaAsset{
		ID:        id,
		FileName:  name,
		FileType:  kind.MIME.Value,
		MediaKind: mediaKind,
		FileSize:  int64(len(data)),
		FileURL:   fileURL,
	}, nil
}

func (s *mediaService) List(ctx context.Context) ([]*models.MediaAsset, error) {
	objects, err := s.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	assets := make([]*models.MediaAsset, 0, len(objects))
	for _, obj := range objects {
		asset := assetFromObject(obj)
		asset.FileURL = s.storage.URL(obj.Name)
		assets = append(assets, asset)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].CreatedAt.After(assets[j].CreatedAt)
	})
	return assets, nil
}

func (s *mediaService) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	if id == "" {
		return nil, errors.New("asset id is not valid")
	}

	assets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		if asset.ID == id {
			return asset, nil
		}
	}
	return nil, fmt.Errorf("media %s not found", id)
}

func (s *mediaService) ReadContent(ctx context.Context, id string) ([]byte, *models.MediaAsset, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.storage.Read(ctx, asset.FileName)
	if err != nil {
		return nil, nil, err
	}
	return data, asset, nil
}

func (s *mediaService) Remove(ctx context.Context, id string) error {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.storage.Delete(ctx, asset.FileName)
}

func mediaKindOf(mimeType string) (string, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.MediaKindImage, nil
	case strings.HasPrefix(mimeType, "video/"):
		return models.MediaKindVideo, nil
	default:
		return "", fmt.Errorf("file type %s is not allowed; only images and videos can be posted", mimeType)
	}
}

func assetFromObject(obj StoredObject) *models.MediaAsset {
	ext := strings.TrimPrefix(filepath.Ext(obj.Name), ".")
	id := strings.TrimSuffix(obj.Name, filepath.Ext(obj.Name))

	mimeType := ""
	mediaKind := models.MediaKindImage
	if t := filetype.GetType(ext); t != types.Unknown {
		mimeType = t.MIME.Value
		if strings.HasPrefix(mimeType, "video/") {
			mediaKind = models.MediaKindVideo
		}
	}

	return &models.MediaAsset{
		ID:        id,
		FileName:  obj.Name,
		FileType:  mimeType,
		MediaKind: mediaKind,
		FileSize:  obj.Size,
		CreatedAt: obj.CreatedAt,
	}
}
