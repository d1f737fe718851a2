// Package core defines the blob storage contract shared by the archive
// backends. It lives apart from package blob so backends can depend on it
// without importing the factory.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver names an archive backend as it appears in configuration.
type Driver string

// Supported archive backends. fs is the default.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// PutOptions carries the content type and flat string metadata stored
// alongside a snapshot document.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"sizeBytes"`
	ContentType  string            `json:"contentType,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"lastModified"`
}

// Store is a create-only object store keyed by slash-separated paths.
type Store interface {
	// Put stores a new blob at key. It fails with ErrExists if the key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get retrieves the blob contents and metadata. Missing keys yield ErrNotFound.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes a blob. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs whose key has the provided prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Sentinel errors; backends wrap them with the offending key.
var (
	ErrNotFound = errors.New("blob: not found")
	ErrExists   = errors.New("blob: already exists")
)
