package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"go.uber.org/zap"
)

// S3Storage stores quote attachments in an S3-compatible bucket
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *logging.SafeLogger
}

// NewS3Storage builds the attachment storage from the application config.
// A custom endpoint with path-style addressing targets MinIO-style servers.
func NewS3Storage(ctx context.Context) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.AppConfig.S3Region),
	}
	if config.AppConfig.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				config.AppConfig.S3AccessKeyID,
				config.AppConfig.S3SecretAccessKey,
				"",
			),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if config.AppConfig.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(config.AppConfig.S3Endpoint)
		}
		o.UsePathStyle = config.AppConfig.S3UsePathStyle
	})

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  config.AppConfig.S3Bucket,
		logger:  logging.Logger,
	}, nil
}

// Put stores an object without overwriting: the conditional write fails when
// the destination path already holds an object
func (s *S3Storage) Put(ctx context.Context, path, contentType string, data []byte) error {
	ctx, _, done := utils.TraceStorageOperation(ctx, "put", s.bucket, path)
	defer done()

	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(path),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String("max-age=3600"),
		IfNoneMatch:  aws.String("*"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 412 {
			return models.ErrAttachmentExists
		}
		return fmt.Errorf("failed to store attachment: %w", err)
	}

	s.logger.Debug("attachment stored",
		zap.String("bucket", s.bucket),
		zap.String("path", path))
	return nil
}

// SignedURLs presigns GET URLs for the given paths. A path that fails to
// sign is skipped rather than failing the batch.
func (s *S3Storage) SignedURLs(ctx context.Context, paths []string, ttl time.Duration) (map[string]string, error) {
	ctx, _, done := utils.TraceStorageOperation(ctx, "sign_urls", s.bucket, fmt.Sprintf("%d paths", len(paths)))
	defer done()

	urls := make(map[string]string, len(paths))
	for _, path := range paths {
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(path),
		}, s3.WithPresignExpires(ttl))
		if err != nil {
			s.logger.Warn("failed to presign attachment URL",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		urls[path] = req.URL
	}
	return urls, nil
}
