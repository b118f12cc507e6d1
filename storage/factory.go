package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/secret-dns/interfaces"
)

// NewSnapshotStoreFor creates a snapshot store from a location URI, or a
// MultiSnapshotStore from a comma separated list of them.
//
// Supported schemes:
//   - file:// - a single file on the local filesystem
//   - s3:// - an object in Amazon S3 or a compatible service
func NewSnapshotStoreFor(locationURI string, log *slog.Logger) (interfaces.SnapshotStore, error) {
	uris := strings.Split(locationURI, ",")
	if len(uris) == 1 {
		return newSnapshotStore(strings.TrimSpace(uris[0]), log)
	}

	stores := make([]interfaces.SnapshotStore, 0, len(uris))
	for _, uri := range uris {
		store, err := newSnapshotStore(strings.TrimSpace(uri), log)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return NewMultiSnapshotStore(stores, log), nil
}

func newSnapshotStore(locationURI string, log *slog.Logger) (interfaces.SnapshotStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return createS3Backend(u, log)
	case "file":
		return createFileBackend(u, log)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createS3Backend parses s3://[ACCESS_KEY:SECRET_KEY@]bucket/key?region=us-west-2&endpoint=custom.s3.com
func createS3Backend(u *url.URL, log *slog.Logger) (*S3Backend, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: s3 URI needs a bucket and an object key", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	log.Debug("Creating S3 snapshot backend",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.String("region", region))
	return NewS3Backend(bucket, key, region, query.Get("endpoint"), accessKey, secretKey, log)
}

// createFileBackend parses file:///absolute/path.json or file://./relative/path.json
func createFileBackend(u *url.URL, log *slog.Logger) (*FileBackend, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	log.Debug("Creating file snapshot backend", slog.String("path", path))
	return NewFileBackend(path, log)
}
