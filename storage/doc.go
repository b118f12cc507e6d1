// Package storage persists cache snapshots behind pluggable backends.
//
// A snapshot is a single mutable object: Save replaces it and Load returns
// the latest version. Backends are chosen by location URI:
//
//   - file:///var/lib/secretdns/cache.json
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/cache.json?region=us-west-2&endpoint=http://minio:9000
//
// Several URIs separated by commas form a MultiSnapshotStore that writes to
// every backend and reads from the first one holding a snapshot.
//
// Backends return interfaces.ErrSnapshotNotFound until the first Save.
package storage
