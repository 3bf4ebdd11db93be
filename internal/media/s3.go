package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Store keeps photos in an S3 bucket under photos/<uuid>.jpg. Used when
// the deployment cannot rely on a persistent local disk.
type S3Store struct {
	client  *s3.Client
	bucket  string
	timeout time.Duration
}

func NewS3Store(ctx context.Context, bucket string, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Store{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		timeout: 15 * time.Second,
	}, nil
}

func (store *S3Store) Save(data []byte) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	fileID := uuid.NewString()
	key := store.keyFor(fileID)
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload photo %s: %w", fileID, err)
	}
	return fileID, key, nil
}

func (store *S3Store) Fetch(fileID string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	object, err := store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.keyFor(fileID)),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("download photo %s: %w", fileID, err)
	}
	defer object.Body.Close()

	data, err := io.ReadAll(object.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read photo %s: %w", fileID, err)
	}
	return data, true, nil
}

func (store *S3Store) Delete(fileID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	// DeleteObject is idempotent on S3: deleting a missing key succeeds.
	_, err := store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.keyFor(fileID)),
	})
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", fileID, err)
	}
	return nil
}

func (store *S3Store) keyFor(fileID string) string {
	return "photos/" + fileID + ".jpg"
}
