package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Archiver writes retention batches to S3 before they are deleted from
// the database. Keys are retention/<table>/<date>/<uuid>.json so a batch
// can be located by table and sweep day.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

func NewS3Archiver(ctx context.Context, bucket string) (*S3Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &S3Archiver{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, table string, batch []byte) error {
	key := fmt.Sprintf("retention/%s/%s/%s.json",
		table, time.Now().UTC().Format("2006-01-02"), uuid.NewString())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(batch),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s batch to s3://%s/%s: %w", table, a.bucket, key, err)
	}
	return nil
}
