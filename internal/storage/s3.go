package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nikhilbhutani/genservices/internal/config"
)

// S3 uploads to an S3-compatible bucket and hands back a presigned GET URL.
type S3 struct {
	bucket     string
	prefix     string
	presignTTL time.Duration

	client    *s3.Client
	presigner *s3.PresignClient
}

// NewS3 builds the client. Static credentials are used only when both keys
// are set; otherwise the SDK's default chain applies. A custom endpoint
// switches to path-style addressing for MinIO and friends.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required (set S3_BUCKET)")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &S3{
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		presignTTL: time.Duration(cfg.PresignTTL) * time.Second,
		client:     client,
		presigner:  s3.NewPresignClient(client),
	}, nil
}

func (s *S3) Name() string { return "s3" }

func (s *S3) Save(ctx context.Context, data []byte, filename, contentType string) (*Result, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}
	key := s.prefix + filename

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	res := &Result{
		Location:    fmt.Sprintf("s3://%s/%s", s.bucket, key),
		ContentType: contentType,
		Backend:     s.Name(),
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		// The object is stored; a missing link is not worth failing the save.
		slog.Warn("presign failed", "location", res.Location, "error", err)
	} else {
		res.URL = &presigned.URL
	}

	logSaved(res, len(data))
	return res, nil
}
