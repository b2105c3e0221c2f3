package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"termo/pkg/platform/sentinel"
)

// GCSStore keeps artifacts as objects in a Cloud Storage bucket. Object
// writes become visible only when the writer is closed, so a failed upload
// never replaces the previous object.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
}

// GCSConfig selects the bucket and, for emulators, the endpoint.
type GCSConfig struct {
	Bucket   string
	Prefix   string
	Endpoint string
}

// NewGCSClient builds a storage client. A custom endpoint implies an
// emulator and disables authentication.
func NewGCSClient(ctx context.Context, cfg GCSConfig) (*storage.Client, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// NewGCSStore returns a store writing to cfg.Bucket under cfg.Prefix.
func NewGCSStore(client *storage.Client, cfg GCSConfig) *GCSStore {
	return &GCSStore{bucket: client.Bucket(cfg.Bucket), prefix: cfg.Prefix}
}

func (s *GCSStore) object(name string) *storage.ObjectHandle {
	return s.bucket.Object(path.Join(s.prefix, name))
}

func (s *GCSStore) Write(ctx context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.object(name).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := w.Write(data); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("upload artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload artifact: %w", err)
	}
	return nil
}

func (s *GCSStore) Read(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, sentinel.ErrNotFound
	}
	r, err := s.object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}
	return data, nil
}
