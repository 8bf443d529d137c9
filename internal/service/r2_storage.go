package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/growmetrics/marketing-api/configs"
)

// r2Storage stores uploads in a Cloudflare R2 bucket through the S3 API.
// With a public bucket the stored URL is already reachable by Instagram, so
// the Cloudinary relay hop becomes unnecessary.
type r2Storage struct {
	cfg       config.R2
	client    *s3.Client
	publicURL string
}

func NewR2Storage(cfg config.R2) (MediaStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading R2 credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})

	return &r2Storage{
		cfg:       cfg,
		client:    client,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func (r *r2Storage) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.cfg.BucketName),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading to R2: %w", err)
	}
	return r.URL(name), nil
}

func (r *r2Storage) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.cfg.BucketName),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching %s from R2: %w", name, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (r *r2Storage) List(ctx context.Context) ([]StoredObject, error) {
	out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.cfg.BucketName),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing R2 bucket: %w", err)
	}

	objects := make([]StoredObject, 0, len(out.Contents))
	for _, obj := range out.Contents {
		stored := StoredObject{Name: aws.ToString(obj.Key)}
		if obj.Size != nil {
			stored.Size = *obj.Size
		}
		if obj.LastModified != nil {
			stored.CreatedAt = *obj.LastModified
		}
		objects = append(objects, stored)
	}
	return objects, nil
}

func (r *r2Storage) Delete(ctx context.Context, name string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.cfg.BucketName),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("error deleting %s from R2: %w", name, err)
	}
	return nil
}

func (r *r2Storage) URL(name string) string {
	return fmt.Sprintf("%s/%s", r.publicURL, name)
}
