package storage

import (
	"context"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// Store is the object-storage capability every pipeline stage writes its
// artifacts through. URIs are opaque s3://bucket/key locators.
type Store interface {
	Put(ctx context.Context, uri s3uri.URI, body []byte) error
	Get(ctx context.Context, uri s3uri.URI) ([]byte, error)
	Exists(ctx context.Context, uri s3uri.URI) (bool, error)
	Download(ctx context.Context, uri s3uri.URI, localPath string) error
	Upload(ctx context.Context, localPath string, uri s3uri.URI) error
	// List returns the keys under the given prefix, lexicographically sorted.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
