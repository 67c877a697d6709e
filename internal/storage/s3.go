// Package storage provides object sources for attachment uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/jamesprial/pipefy-mcp/internal/config"
	"github.com/jamesprial/pipefy-mcp/internal/pipefy"
)

// ErrObjectNotFound is returned by GetObject when the bucket or key does
// not exist.
var ErrObjectNotFound = errors.New("object not found")

// objectAPI is the part of *s3.Client used by S3Source.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads objects from S3 or an S3-compatible service such as MinIO.
type S3Source struct {
	api objectAPI
}

// NewS3Source builds an S3Source from cfg. An empty endpoint targets AWS;
// empty keys fall back to the default credential chain.
func NewS3Source(ctx context.Context, cfg config.S3Config) (*S3Source, error) {
	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("storage: invalid S3 endpoint: %w", err)
		}
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Source{api: client}, nil
}

// Enabled reports whether cfg names enough to build a source.
func Enabled(cfg config.S3Config) bool {
	return cfg.Endpoint != "" || cfg.AccessKey != ""
}

// GetObject opens bucket/key and returns its body and content type. The
// caller closes the body.
func (s *S3Source) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, string, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey", "NoSuchBucket", "NotFound":
				return nil, "", fmt.Errorf("storage: %s/%s: %w", bucket, key, ErrObjectNotFound)
			}
		}
		return nil, "", fmt.Errorf("storage: get %s/%s: %w", bucket, key, err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}

var _ pipefy.ObjectSource = (*S3Source)(nil)
