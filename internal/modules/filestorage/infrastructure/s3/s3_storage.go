package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
)

// S3Config holds configuration for S3/MinIO storage
type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string // e.g. minio:9000, empty for AWS
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Prefix     string // optional key prefix inside the bucket
}

// S3Storage implements FileStorage interface using AWS S3 or MinIO
type S3Storage struct {
	client *s3.Client
	config S3Config
}

// NewS3Storage creates a new S3 storage implementation
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var awsCfg aws.Config
	var err error

	if cfg.Endpoint != "" {
		// MinIO / LocalStack Configuration
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
			o.UsePathStyle = true // Required for MinIO
		}
	})

	return &S3Storage{
		client: client,
		config: cfg,
	}, nil
}

// Save uploads the reader to S3. Seekable readers are sent with a known content length.
func (s *S3Storage) Save(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(s.objectKey(key)),
		Body:        r,
		ContentType: aws.String(contentType),
	}

	var size int64
	counter := &countingReader{r: r}
	if seeker, ok := r.(io.Seeker); ok {
		cur, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, fmt.Errorf("failed to seek upload body: %w", err)
		}
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, fmt.Errorf("failed to seek upload body: %w", err)
		}
		if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
			return 0, fmt.Errorf("failed to seek upload body: %w", err)
		}
		size = end - cur
		input.ContentLength = aws.Int64(size)
	} else {
		input.Body = counter
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("failed to upload to s3: %w", err)
	}

	if input.ContentLength == nil {
		size = counter.n
	}
	return size, nil
}

// Open streams the object body
func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, domain.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get object from s3: %w", err)
	}
	return out.Body, nil
}

// Delete deletes an object from S3. S3 does not report missing keys on delete, so this
// never returns ErrObjectNotFound.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}

func (s *S3Storage) objectKey(key string) string {
	if s.config.Prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.config.Prefix, "/") + "/" + key
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// endpointURL adds a scheme to bare host:port endpoints
func endpointURL(endpoint string, useSSL bool) string {
	if hasHTTPPrefix(endpoint) {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// hasHTTPPrefix checks if a string has http:// or https:// prefix
func hasHTTPPrefix(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
