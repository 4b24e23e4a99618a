package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Options configures the archive uploader. BaseEndpoint supports
// S3-compatible stores like MinIO; leave it empty for AWS proper.
type S3Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// Seams for testing the uploader without the AWS SDK's network stack.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// Uploader pushes archives to an S3-compatible bucket.
type Uploader struct {
	opts S3Options
}

func NewUploader(opts S3Options) *Uploader {
	return &Uploader{opts: opts}
}

// archiveStorageKey partitions archives by date; the uuid suffix prevents
// same-second collisions.
func archiveStorageKey(userID string, at time.Time) string {
	return fmt.Sprintf("backups/%s/%d/%02d/%02d/%v.json",
		userID, at.Year(), at.Month(), at.Day(), uuid.New())
}

// Upload serializes the archive and puts it into the bucket, returning the
// object key.
func (u *Uploader) Upload(ctx context.Context, a *Archive) (string, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.opts.RootUser,
			u.opts.RootPassword,
			"",
		)))
	if err != nil {
		return "", fmt.Errorf("loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}

	key := archiveStorageKey(a.UserID, a.ExportedAt)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading archive: %w", err)
	}
	return key, nil
}
