// Package storage abstracts the places batch inputs and outputs live.
//
// A [Store] is a flat namespace of named objects relative to a root. Names
// use forward slashes; "backup/a.json" is the object a.json under backup.
// [Local] roots a store in a directory, [S3] under a bucket prefix.
// [Open] picks the implementation from a location string.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotFound is returned when a named object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is a named object store.
type Store interface {
	// List returns the names of objects directly under the root, sorted.
	// Nested objects are not listed.
	List(ctx context.Context) ([]string, error)

	// Read returns the content of name.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write creates or replaces name.
	Write(ctx context.Context, name string, data []byte) error

	// Move renames src to dst, replacing dst.
	Move(ctx context.Context, src, dst string) error

	// Delete removes name. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Location describes the root for log output.
	Location() string
}

// Open returns the store for location. "s3://bucket/prefix" opens an S3
// store with the default AWS credential chain; anything else, optionally
// prefixed with "file://", is a local directory.
func Open(ctx context.Context, location string) (Store, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, errors.New("s3 location has no bucket")
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return NewS3(s3.NewFromConfig(cfg), bucket, prefix), nil
	}
	return NewLocal(strings.TrimPrefix(location, "file://"))
}
