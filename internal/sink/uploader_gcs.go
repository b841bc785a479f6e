package sink

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Compile-time check that gcsUploader implements ObjectUploader.
var _ ObjectUploader = (*gcsUploader)(nil)

// gcsUploader writes archive objects to a Google Cloud Storage bucket.
type gcsUploader struct {
	client *storage.Client
	bucket string
}

func newGCSUploader(bucket string, creds ArchiveCredentials) (*gcsUploader, error) {
	if creds.GCSKeyFile == "" {
		return nil, fmt.Errorf("gcs archive requires a service account key file")
	}

	client, err := storage.NewClient(context.Background(), option.WithAuthCredentialsFile(option.ServiceAccount, creds.GCSKeyFile))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &gcsUploader{client: client, bucket: bucket}, nil
}

// Upload implements ObjectUploader.
func (u *gcsUploader) Upload(ctx context.Context, key string, body []byte) error {
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/x-ndjson"
	if _, err := w.Write(body); err != nil {
		w.Close() //nolint:errcheck
		return fmt.Errorf("write gs://%s/%s: %w", u.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", u.bucket, key, err)
	}
	return nil
}
