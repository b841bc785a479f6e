package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"querywatch/internal/domain"
)

// Compile-time check that ArchiveSink implements domain.FindingSink.
var _ domain.FindingSink = (*ArchiveSink)(nil)

// ObjectUploader puts a single object into cloud object storage.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// ArchiveCredentials carries the credentials the uploader backends
// need. Only the fields for the selected backend are read.
type ArchiveCredentials struct {
	S3KeyID    string
	S3Secret   string
	S3Endpoint string
	S3Region   string

	GCSKeyFile string

	AzureAccountName string
	AzureAccountKey  string
}

// ArchiveSink renders the findings report as JSON lines and uploads
// one object per run, keyed <prefix>/YYYY/MM/DD/<runID>.jsonl. Runs
// with no findings still produce an (empty) object, so the archive
// records that the run happened.
type ArchiveSink struct {
	uploader ObjectUploader
	prefix   string
}

// NewArchiveSink parses archiveURL (s3://bucket/prefix, az://container/prefix
// or gs://bucket/prefix), builds the matching uploader, and returns the
// sink.
func NewArchiveSink(archiveURL string, creds ArchiveCredentials) (*ArchiveSink, error) {
	u, err := url.Parse(archiveURL)
	if err != nil {
		return nil, fmt.Errorf("parse archive URL %q: %w", archiveURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("archive URL %q missing bucket", archiveURL)
	}
	prefix := strings.Trim(u.Path, "/")

	var uploader ObjectUploader
	switch u.Scheme {
	case "s3":
		uploader, err = newS3Uploader(u.Host, creds)
	case "az":
		uploader, err = newAzureUploader(u.Host, creds)
	case "gs":
		uploader, err = newGCSUploader(u.Host, creds)
	default:
		return nil, fmt.Errorf("unsupported archive scheme %q in %q", u.Scheme, archiveURL)
	}
	if err != nil {
		return nil, err
	}

	return &ArchiveSink{uploader: uploader, prefix: prefix}, nil
}

// Name implements domain.FindingSink.
func (s *ArchiveSink) Name() string { return "archive" }

// Deliver implements domain.FindingSink.
func (s *ArchiveSink) Deliver(ctx context.Context, run *domain.DetectionRun, findings []domain.AnomalyFinding) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range findings {
		if err := enc.Encode(newFindingRecord(run.ID, f)); err != nil {
			return fmt.Errorf("encode finding: %w", err)
		}
	}

	key := s.objectKey(run)
	if err := s.uploader.Upload(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("archive run %s: %w", run.ID, err)
	}
	return nil
}

func (s *ArchiveSink) objectKey(run *domain.DetectionRun) string {
	return path.Join(s.prefix, run.StartedAt.UTC().Format("2006/01/02"), run.ID+".jsonl")
}
