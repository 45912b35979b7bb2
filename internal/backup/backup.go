// Package backup snapshots the RSVP data set and ships it to an
// S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

const (
	// KeyPrefix is where snapshots live inside the bucket.
	KeyPrefix = "wedding-rsvp/snapshots/"
	// DefaultRetention is how long uploaded snapshots are kept.
	DefaultRetention = 30 * 24 * time.Hour

	snapshotVersion = 1
)

// Snapshot is a point-in-time export of every invite and response.
type Snapshot struct {
	Version   int                `json:"version"`
	TakenAt   time.Time          `json:"taken_at"`
	Invites   []*domain.Invite   `json:"invites"`
	Responses []*domain.Response `json:"responses"`
}

// Take reads the full data set from store.
func Take(ctx context.Context, store storage.Store, now time.Time) (*Snapshot, error) {
	invites, err := store.ListInvites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	responses, err := store.ListResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	detached := make([]*domain.Invite, len(invites))
	for i, inv := range invites {
		detached[i] = inv.Detached()
	}
	return &Snapshot{
		Version:   snapshotVersion,
		TakenAt:   now.UTC(),
		Invites:   detached,
		Responses: responses,
	}, nil
}

// WriteTo writes the snapshot as indented JSON.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	b = append(b, '\n')
	n, err := w.Write(b)
	return int64(n), err
}

// Key is the object key the snapshot is uploaded under.
func (s *Snapshot) Key() string {
	return KeyPrefix + "rsvp-" + s.TakenAt.Format("20060102-150405") + ".json"
}

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds the bucket connection settings.
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Client builds a client with static credentials. Endpoint targets
// S3-compatible services such as R2 or Tigris.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("backup bucket credentials not configured (BACKUP_BUCKET, BACKUP_ACCESS_KEY, BACKUP_SECRET_KEY)")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Uploader stores snapshots in a bucket and prunes old ones.
type Uploader struct {
	client S3API
	bucket string
	logger *slog.Logger
}

func NewUploader(client S3API, bucket string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{client: client, bucket: bucket, logger: logger}
}

// Upload writes the snapshot and returns its key.
func (u *Uploader) Upload(ctx context.Context, snap *Snapshot) (string, error) {
	var buf bytes.Buffer
	if _, err := snap.WriteTo(&buf); err != nil {
		return "", err
	}

	key := snap.Key()
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	u.logger.Info("snapshot uploaded",
		"bucket", u.bucket,
		"key", key,
		"invites", len(snap.Invites),
		"responses", len(snap.Responses),
	)
	return key, nil
}

// Prune deletes snapshots last modified before now minus retention. A
// failed delete is logged and does not stop the sweep.
func (u *Uploader) Prune(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	cutoff := now.Add(-retention)

	paginator := s3.NewListObjectsV2Paginator(u.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.bucket),
		Prefix: aws.String(KeyPrefix),
	})

	var stale []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				stale = append(stale, aws.ToString(obj.Key))
			}
		}
	}

	deleted := 0
	for _, key := range stale {
		_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			u.logger.Warn("failed to delete old snapshot", "key", key, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		u.logger.Info("old snapshots pruned", "count", deleted)
	}
	return deleted, nil
}
