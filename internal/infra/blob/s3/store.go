// Package s3 implements the blob store on an S3-compatible backend (AWS S3 or MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"curriculumcore/internal/blob/core"
)

// Store implements core.Store against a single bucket. Keys map to object keys
// directly, optionally under a fixed prefix.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// Config holds explicit construction parameters.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // optional key prefix inside the bucket
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// New creates an S3 blob store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverS3 }

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *Store) blobKey(objectKey string) string {
	if s.prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(objectKey, s.prefix+"/")
}

func isNotFound(err error) bool {
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}

func (s *Store) exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &objectKey})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// Put emulates create-only semantics with a HEAD before the write. The body
// is buffered so the request carries an exact content length.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	objectKey := s.objectKey(key)
	found, err := s.exists(ctx, objectKey)
	if err != nil {
		return core.Info{}, fmt.Errorf("head %s: %w", key, err)
	}
	if found {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	input := &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &objectKey,
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return core.Info{}, fmt.Errorf("put %s: %w", key, err)
	}
	return core.Info{
		Key:          key,
		Size:         int64(len(body)),
		ContentType:  opts.ContentType,
		ETag:         strings.Trim(aws.ToString(out.ETag), "\""),
		Metadata:     opts.Metadata,
		LastModified: time.Now().UTC(),
	}, nil
}

// Get streams the object body.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	objectKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objectKey})
	if err != nil {
		if isNotFound(err) {
			return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
		}
		return core.Info{}, nil, err
	}
	info := core.Info{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        strings.Trim(aws.ToString(out.ETag), "\""),
		Metadata:    out.Metadata,
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, out.Body, nil
}

// Delete removes the object, reporting whether it existed beforehand.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	objectKey := s.objectKey(key)
	found, err := s.exists(ctx, objectKey)
	if err != nil || !found {
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &objectKey}); err != nil {
		return false, err
	}
	return true, nil
}

// List pages through ListObjectsV2 for prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	objectPrefix := s.objectKey(prefix)
	var infos []core.Info
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &objectPrefix})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			infos = append(infos, core.Info{
				Key:          s.blobKey(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				ETag:         strings.Trim(aws.ToString(obj.ETag), "\""),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
