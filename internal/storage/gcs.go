package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"galleria/internal/models"
	"galleria/internal/utils"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// GCSImageStore keeps images as objects in a single Google Cloud Storage bucket.
// The remote id of an image is its object path.
type GCSImageStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
	attempts      uint
	retryDelay    time.Duration
}

// NewGCSClient builds a storage client from a credentials file, or from
// application default credentials when the path is empty.
func NewGCSClient(ctx context.Context, credentialsFile string) (*gcs.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

func NewGCSImageStore(client *gcs.Client, bucket, publicBaseURL string) *GCSImageStore {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	return &GCSImageStore{
		client:        client,
		bucket:        strings.TrimSpace(bucket),
		publicBaseURL: base,
		attempts:      3,
		retryDelay:    200 * time.Millisecond,
	}
}

func (s *GCSImageStore) bucketHandle() (*gcs.BucketHandle, error) {
	if s.client == nil {
		return nil, errors.New("gcs image store: storage client is nil")
	}
	if s.bucket == "" {
		return nil, errors.New("gcs image store: bucket is empty")
	}
	return s.client.Bucket(s.bucket), nil
}

func (s *GCSImageStore) Upload(ctx context.Context, file File, folder string) (models.Image, error) {
	timer := newOpTimer("upload")
	defer timer.done()

	objectPath, err := ObjectPath(folder, file.ContentType)
	if err != nil {
		timer.fail()
		return models.Image{}, err
	}
	bh, err := s.bucketHandle()
	if err != nil {
		timer.fail()
		return models.Image{}, err
	}

	w := bh.Object(objectPath).NewWriter(ctx)
	w.ContentType = file.ContentType
	w.Metadata = map[string]string{
		"originalName": file.Name,
		"uploadedAt":   time.Now().UTC().Format(time.RFC3339),
	}
	if file.Reader == nil {
		_ = w.Close()
		timer.fail()
		return models.Image{}, errors.New("gcs image store: file reader is nil")
	}
	if _, err := io.Copy(w, file.Reader); err != nil {
		_ = w.Close()
		timer.fail()
		return models.Image{}, fmt.Errorf("failed to write object %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		timer.fail()
		return models.Image{}, fmt.Errorf("failed to finalize object %s: %w", objectPath, err)
	}

	log.Debug().Str("bucket", s.bucket).Str("remoteID", objectPath).Int64("size", file.Size).Msg("Image uploaded")
	return models.Image{URL: s.PublicURL(objectPath), RemoteID: objectPath}, nil
}

func (s *GCSImageStore) Delete(ctx context.Context, remoteID string) error {
	timer := newOpTimer("delete")
	defer timer.done()

	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		timer.fail()
		return ErrEmptyRemoteID
	}
	bh, err := s.bucketHandle()
	if err != nil {
		timer.fail()
		return err
	}

	err = retry.Do(
		func() error {
			err := bh.Object(remoteID).Delete(ctx)
			if errors.Is(err, gcs.ErrObjectNotExist) {
				return nil
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		timer.fail()
		return fmt.Errorf("failed to delete object %s: %w", remoteID, err)
	}
	return nil
}

func (s *GCSImageStore) DeleteFolder(ctx context.Context, prefix string) error {
	timer := newOpTimer("delete_folder")
	defer timer.done()

	p, err := folderPrefix(prefix)
	if err != nil {
		timer.fail()
		return err
	}
	bh, err := s.bucketHandle()
	if err != nil {
		timer.fail()
		return err
	}

	it := bh.Objects(ctx, &gcs.Query{Prefix: p})
	var errs []error
	deleted := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			timer.fail()
			return fmt.Errorf("failed to list objects under %s: %w", p, err)
		}
		if attrs == nil || attrs.Name == "" {
			continue
		}
		if err := s.Delete(ctx, attrs.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}

	log.Debug().Str("bucket", s.bucket).Str("prefix", p).Int("deleted", deleted).Int("failed", len(errs)).Msg("Folder swept")
	if len(errs) > 0 {
		timer.fail()
		return errors.Join(errs...)
	}
	return nil
}

// PublicURL returns the public URL of an object in a publicly readable bucket.
func (s *GCSImageStore) PublicURL(objectPath string) string {
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, strings.Join(parts, "/"))
}

// ObjectPath builds a fresh object path below folder for the given content type.
func ObjectPath(folder, contentType string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return "", ErrEmptyFolder
	}
	ext, err := ExtensionFor(contentType)
	if err != nil {
		return "", err
	}
	return path.Join(folder, uuid.NewString()+ext), nil
}

func folderPrefix(prefix string) (string, error) {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return "", ErrEmptyFolder
	}
	return p + "/", nil
}

func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type opTimer struct {
	start     time.Time
	operation string
	status    string
}

func newOpTimer(operation string) *opTimer {
	return &opTimer{start: time.Now(), operation: operation, status: "success"}
}

func (t *opTimer) fail() { t.status = "error" }

func (t *opTimer) done() {
	utils.ImageStoreDurationSeconds.WithLabelValues(t.operation, t.status).Observe(time.Since(t.start).Seconds())
}
