package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	contentTypeNDJSON = "application/x-ndjson"

	// dateToken in an object key is replaced by the UTC export date, giving
	// one object per day.
	dateToken = "{date}"
)

// S3Destination uploads exports to an S3-compatible bucket.
type S3Destination struct {
	client *s3.Client
	bucket string
	key    string
	now    func() time.Time
}

// NewS3Destination builds a destination from the default AWS credential
// chain. A non-empty endpoint selects path-style addressing, as MinIO
// expects.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	if bucket == "" || key == "" {
		return nil, errors.New("s3 destination: bucket and key are required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Destination{client: client, bucket: bucket, key: key, now: time.Now}, nil
}

// Location returns the s3:// URI of the configured key, before date
// expansion.
func (d *S3Destination) Location() string {
	return fmt.Sprintf("s3://%s/%s", d.bucket, d.key)
}

func (d *S3Destination) objectKey() string {
	return strings.ReplaceAll(d.key, dateToken, d.now().UTC().Format(time.DateOnly))
}

// Write stores data under the object key, replacing any previous export.
func (d *S3Destination) Write(ctx context.Context, data []byte) error {
	sum := sha256.Sum256(data)
	key := d.objectKey()
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(d.bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(data),
		ContentType:    aws.String(contentTypeNDJSON),
		ContentLength:  aws.Int64(int64(len(data))),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sum[:])),
		Metadata:       map[string]string{"generator": "board"},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", d.bucket, key, err)
	}
	return nil
}
