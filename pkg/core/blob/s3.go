// Package blob stores retrieved source documents in object storage so the
// extraction provenance stays auditable.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// DocumentStore is the narrow storage surface the pipeline needs.
type DocumentStore interface {
	// Put uploads body under key and returns the stored document's URL.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// S3Config configures the S3-backed store. Credentials come from the
// standard AWS config/credential chain; only overrides live here.
type S3Config struct {
	Bucket string
	// Region to use for requests. If empty, AWS defaults apply.
	Region string
	// Profile selects a named shared config profile. If empty, default chain applies.
	Profile string
	// UsePathStyle forces path-style addressing (S3-compatible providers).
	UsePathStyle bool
	// PublicBaseURL, when set, is used to build returned document URLs
	// (e.g. a CDN or bucket website endpoint).
	PublicBaseURL string
}

// S3Store implements DocumentStore on top of the AWS SDK v2 client.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ DocumentStore = (*S3Store)(nil)

// NewS3Store creates an S3Store using the default AWS configuration chain
// with optional overrides from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blob: bucket not configured")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads the document and returns its URL.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", key, err)
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Exists returns true if the object exists; false on 404/NotFound.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}

	return false, err
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ObjectKey builds the storage key for a document:
// <category>/<entity>/<documentID>_<timestamp>.<ext>
// Entity names are sanitized for key safety.
func ObjectKey(category, entity, documentID, ext string) string {
	safeEntity := strings.Trim(unsafeKeyChars.ReplaceAllString(entity, "_"), "_")
	if safeEntity == "" {
		safeEntity = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s_%d.%s",
		category, safeEntity, documentID, time.Now().UnixMilli(), ext)
}
