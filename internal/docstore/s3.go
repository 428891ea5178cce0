// Package docstore persists uploaded claim attachments and hands back
// reference URLs. The core never stores raw bytes on a claim.
package docstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// S3API is the subset of the S3 client used by the store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads claim documents to an S3 bucket.
type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
	timeout time.Duration
}

// NewS3Store creates a store writing to the given bucket. baseURL is the
// public prefix for returned document URLs (e.g. a CloudFront distribution or
// the bucket endpoint).
func NewS3Store(client S3API, bucket, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: baseURL, timeout: 30 * time.Second}
}

// Store uploads the document under claims/{uuid}/{name} and returns its URL.
// Upload failures surface as DependencyUnavailableError so callers can retry.
func (s *S3Store) Store(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	cleanName, err := sanitizeKey(name)
	if err != nil {
		return "", err
	}
	key := "claims/" + uuid.NewString() + "/" + cleanName

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &domain.DependencyUnavailableError{Dependency: "document store", Err: err}
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

var _ domain.DocumentStore = (*S3Store)(nil)
