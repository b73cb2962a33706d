package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hay-kot/asmbench/internal/core/config"
)

const defaultRegion = "us-east-1"

// S3Writer uploads artifacts to an S3 compatible bucket.
type S3Writer struct {
	client *minio.Client
	bucket string
	region string
	prefix string

	initOnce sync.Once
	initErr  error
}

// NewS3Writer connects to the bucket described by cfg.
func NewS3Writer(cfg config.S3Config) (*S3Writer, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Writer{client: client, bucket: bucket, region: region, prefix: cfg.Prefix}, nil
}

func (w *S3Writer) ensureBucket(ctx context.Context) error {
	w.initOnce.Do(func() {
		exists, err := w.client.BucketExists(ctx, w.bucket)
		if err != nil {
			w.initErr = err
			return
		}
		if exists {
			return
		}
		w.initErr = w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{Region: w.region})
	})
	return w.initErr
}

func (w *S3Writer) Write(ctx context.Context, a Artifact) (Receipt, error) {
	if err := w.ensureBucket(ctx); err != nil {
		return Receipt{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := objectKey(w.prefix, a.Name)
	_, err := w.client.PutObject(ctx, w.bucket, key, bytes.NewReader(a.Content), int64(len(a.Content)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("put %s: %w", key, err)
	}
	return Receipt{Sink: "s3", Location: "s3://" + w.bucket + "/" + key, Bytes: len(a.Content)}, nil
}

func objectKey(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
