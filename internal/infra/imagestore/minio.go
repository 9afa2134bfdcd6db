package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/pkg/util"
)

// ObjectStore keeps embedded image blobs in an S3-compatible bucket so
// handles stay retrievable across replicas. Retention is enforced on
// Fetch from the object's creation time.
type ObjectStore struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewObjectStore constructs the adapter.
func NewObjectStore(endpoint, accessKey, secretKey, bucket, region string, ttl time.Duration, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init image object store: %w", err)
	}
	return &ObjectStore{
		client: client,
		bucket: bucket,
		ttl:    ttl,
		logger: logger.With("component", "imagestore.object"),
		now:    util.NowUTC,
	}, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Save implements stylist.ImageStore.
func (s *ObjectStore) Save(ctx context.Context, id string, blob stylist.ImageBlob) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	stored := blob.StoredAt
	if stored.IsZero() {
		stored = s.now()
	}
	reader := bytes.NewReader(blob.Data)
	_, err := s.client.PutObject(ctx, s.bucket, id, reader, int64(len(blob.Data)), minio.PutObjectOptions{
		ContentType:      blob.MimeType,
		DisableMultipart: true,
		UserMetadata:     map[string]string{"stored-at": stored.Format(time.RFC3339Nano)},
	})
	return err
}

// Fetch implements stylist.ImageStore.
func (s *ObjectStore) Fetch(ctx context.Context, id string) (stylist.ImageBlob, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return stylist.ImageBlob{}, false, err
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return stylist.ImageBlob{}, false, nil
		}
		return stylist.ImageBlob{}, false, err
	}

	storedAt := stat.LastModified
	if raw, ok := stat.UserMetadata["Stored-At"]; ok {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			storedAt = parsed
		}
	}
	if s.now().Sub(storedAt) > s.ttl {
		if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("expired image cleanup failed", "id", id, "error", err)
		}
		return stylist.ImageBlob{}, false, nil
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return stylist.ImageBlob{}, false, err
	}
	return stylist.ImageBlob{Data: data, MimeType: stat.ContentType, StoredAt: storedAt}, true, nil
}

var _ stylist.ImageStore = (*ObjectStore)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		raw = strings.Split(raw, "/")[0]
	}
	return raw
}
