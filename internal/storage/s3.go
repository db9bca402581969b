package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"rentsnap/internal/config"
	"rentsnap/internal/logger"
)

// S3Storage puts public-read objects into a bucket of any S3 compatible service.
type S3Storage struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

// NewS3Storage connects to the bucket. publicURL defaults to the bucket's
// virtual-host URL on AWS.
func NewS3Storage(cfg config.S3Config, publicURL string) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Storage{client: s3.New(sess), bucket: cfg.Bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (s *S3Storage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	logger.ExternalServiceCall(ctx, "s3", "PutObject", "bucket", s.bucket, "key", key)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	logger.ExternalServiceResult(ctx, "s3", "PutObject", err)
	if err != nil {
		return "", fmt.Errorf("unable to upload %s to s3: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("unable to delete %s from s3: %w", key, err)
	}
	return nil
}

func (s *S3Storage) KeyFromURL(url string) (string, bool) {
	return keyFromURL(s.publicURL, url)
}
