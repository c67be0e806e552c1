// Package store provides the object storage gateway backing the gallery:
// uploads are world-readable S3 objects addressed by structured keys.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	// ErrUnavailable wraps transport or auth failures talking to the store.
	// The caller aborts the current artwork's ingestion.
	ErrUnavailable = errors.New("object store unavailable")
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("object not found")
)

// cacheControl keeps renditions cacheable for a year; keys are immutable.
const cacheControl = "max-age=31536000"

// presignExpiry bounds direct-to-store upload URLs.
const presignExpiry = 15 * time.Minute

// ObjectStore is the gateway the ingestion pipeline talks to. Implementations
// must make stored objects publicly readable.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
}

// s3API is the slice of the S3 client the store needs, allowing a mock client
// in tests.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stores objects in one S3 bucket under a single region.
type S3Store struct {
	client    s3API
	presigner *s3.PresignClient
	bucket    string
	region    string
	cdnDomain string // optional, e.g. https://cdn.example.com
}

// Options configures an S3Store.
type Options struct {
	Bucket    string
	Region    string
	CDNDomain string
}

// NewS3Store builds a store from the default AWS config chain. Static
// credentials from the environment take precedence, matching how the
// processing runs in CI.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrUnavailable, err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		region:    opts.Region,
		cdnDomain: strings.TrimSuffix(opts.CDNDomain, "/"),
	}, nil
}

// newS3StoreWithClient is the test seam.
func newS3StoreWithClient(client s3API, opts Options) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		region:    opts.Region,
		cdnDomain: strings.TrimSuffix(opts.CDNDomain, "/"),
	}
}

// Put uploads a buffer under key with a public-read ACL and returns the
// public URL.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return s.PublicURL(key), nil
}

// Get fetches an object's bytes by key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return data, nil
}

// Delete removes an object by key. Deleting a missing key is not an error;
// S3 treats the operation as idempotent and so does this gateway.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// PublicURL resolves the world-readable URL for a key: the CDN domain when
// configured, otherwise the bucket's virtual-hosted S3 URL.
func (s *S3Store) PublicURL(key string) string {
	if s.cdnDomain != "" {
		return s.cdnDomain + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// PresignPut issues a time-limited URL a client can PUT an object to
// directly, with the same public-read policy applied.
func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	if s.presigner == nil {
		return "", fmt.Errorf("%w: presigning not configured", ErrUnavailable)
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}, func(o *s3.PresignOptions) {
		o.Expires = presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", ErrUnavailable, key, err)
	}
	return req.URL, nil
}

// PresignExpirySeconds reports the presigned URL lifetime for API responses.
func PresignExpirySeconds() int {
	return int(presignExpiry / time.Second)
}
