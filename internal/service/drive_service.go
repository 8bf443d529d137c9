package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	config "github.com/growmetrics/marketing-api/configs"
	"github.com/growmetrics/marketing-api/internal/transfer"
)

// DriveService stages review-ready media out of a shared Google Drive folder.
// Files are listed for the dashboard and made world-readable before their
// direct-download URL is handed to the publish pipeline.
type DriveService interface {
	ListMedia(ctx context.Context) ([]transfer.ContentItem, error)
	EnsurePublic(ctx context.Context, fileID string) error
	PublicURL(fileID string) string
}

type driveService struct {
	cfg   config.Config
	files driveFilesAPI
}

// driveFilesAPI is the slice of the Drive client the service touches, kept
// narrow so tests can stub it.
type driveFilesAPI interface {
	ListFiles(ctx context.Context, query string) ([]*drive.File, error)
	CreatePermission(ctx context.Context, fileID string, perm *drive.Permission) error
}

type googleDriveFiles struct {
	svc *drive.Service
}

func (g *googleDriveFiles) ListFiles(ctx context.Context, query string) ([]*drive.File, error) {
	var files []*drive.File
	call := g.svc.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, createdTime, size, thumbnailLink)").
		OrderBy("createdTime desc").
		PageSize(100)
	if err := call.Pages(ctx, func(page *drive.FileList) error {
		files = append(files, page.Files...)
		return nil
	}); err != nil {
		return nil, err
	}
	return files, nil
}

func (g *googleDriveFiles) CreatePermission(ctx context.Context, fileID string, perm *drive.Permission) error {
	_, err := g.svc.Permissions.Create(fileID, perm).Context(ctx).Do()
	return err
}

func NewDriveService(ctx context.Context, cfg config.Config) (DriveService, error) {
	if cfg.GoogleDrive.ClientEmail == "" || cfg.GoogleDrive.PrivateKey == "" {
		return nil, errors.New("google drive credentials are not configured: set GOOGLE_DRIVE_CLIENT_EMAIL and GOOGLE_DRIVE_PRIVATE_KEY")
	}

	// Private keys pasted into env files arrive with literal \n sequences.
	key := strings.ReplaceAll(cfg.GoogleDrive.PrivateKey, `\n`, "\n")

	jwtCfg := &jwt.Config{
		Email:      cfg.GoogleDrive.ClientEmail,
		PrivateKey: []byte(key),
		Scopes:     []string{drive.DriveReadonlyScope, drive.DriveScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("error creating drive client: %w", err)
	}

	return &driveService{cfg: cfg, files: &googleDriveFiles{svc: svc}}, nil
}

func (s *driveService) ListMedia(ctx context.Context) ([]transfer.ContentItem, error) {
	if s.cfg.GoogleDrive.FolderID == "" {
		return nil, errors.New("GOOGLE_DRIVE_FOLDER_ID is not configured")
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false and (mimeType contains 'image/' or mimeType contains 'video/')",
		s.cfg.GoogleDrive.FolderID)

	files, err := s.files.ListFiles(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing drive folder: %w", err)
	}

	items := make([]transfer.ContentItem, 0, len(files))
	for _, f := range files {
		items = append(items, transfer.ContentItem{
			ID:           f.Id,
			Name:         f.Name,
			URL:          s.PublicURL(f.Id),
			ThumbnailURL: f.ThumbnailLink,
			MimeType:     f.MimeType,
			CreatedTime:  f.CreatedTime,
			Size:         f.Size,
			Status:       "draft",
		})
	}
	return items, nil
}

// EnsurePublic grants anyone-with-the-link read access so the Graph API can
// fetch the file. Drive returns an error when the permission already exists;
// that case is treated as success.
func (s *driveService) EnsurePublic(ctx context.Context, fileID string) error {
	perm := &drive.Permission{Role: "reader", Type: "anyone"}
	if err := s.files.CreatePermission(ctx, fileID, perm); err != nil {
		if strings.Contains(err.Error(), "alreadyExists") {
			return nil
		}
		return fmt.Errorf("error sharing drive file %s: %w", fileID, err)
	}
	return nil
}

func (s *driveService) PublicURL(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}
