// Package storage abstracts the object store backing the bronze layer.
//
// The pipeline treats the store as synchronous and at-least-once; idempotency
// is supplied by callers (existence checks before ingestion writes, repeatable
// deletes during compaction), not by the store.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by GetJSON when the object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the minimal object-store surface the pipeline consumes.
type ObjectStore interface {
	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// PutJSON writes body to key with an application/json content type.
	// meta carries optional object metadata (source, query date, ingestion
	// timestamp). Failures are reported as *WriteError.
	PutJSON(ctx context.Context, key string, body []byte, meta map[string]string) error

	// GetJSON reads the object at key. Returns ErrNotFound for a missing
	// object and *ReadError for any other failure.
	GetJSON(ctx context.Context, key string) ([]byte, error)

	// ListPrefix returns the keys of all objects under prefix, sorted
	// ascending. Backends whose native listing order is undefined must sort.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// DeleteIfExists removes the object at key. Deleting a missing object
	// is not an error.
	DeleteIfExists(ctx context.Context, key string) error
}

// WriteError reports a failed write, attributable to a specific key.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a failed read, attributable to a specific key.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
