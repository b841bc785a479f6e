package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Compile-time check that s3Uploader implements ObjectUploader.
var _ ObjectUploader = (*s3Uploader)(nil)

// s3Uploader writes archive objects to S3 or an S3-compatible store.
type s3Uploader struct {
	client *s3.Client
	bucket string
}

func newS3Uploader(bucket string, creds ArchiveCredentials) (*s3Uploader, error) {
	if creds.S3KeyID == "" || creds.S3Secret == "" || creds.S3Endpoint == "" || creds.S3Region == "" {
		return nil, fmt.Errorf("s3 archive requires key ID, secret, endpoint, and region")
	}

	endpoint := fmt.Sprintf("https://%s", creds.S3Endpoint)
	client := s3.New(s3.Options{
		Region: creds.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			creds.S3KeyID, creds.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true, // S3-compatible stores require path-style URLs
	})

	return &s3Uploader{client: client, bucket: bucket}, nil
}

// Upload implements ObjectUploader.
func (u *s3Uploader) Upload(ctx context.Context, key string, body []byte) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	return nil
}
