// Package core defines the document archive contract shared by the storage
// drivers. Archived documents are write-once: a key is never overwritten.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"strings"
	"time"
)

// Driver identifies a concrete archive backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-process (tests)
)

// PutOptions carries optional attributes stored with a document.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes an archived document.
type Info struct {
	Key         string            `json:"key"`
	Size        int64             `json:"sizeBytes"`
	ContentType string            `json:"contentType,omitempty"`
	Checksum    string            `json:"sha256,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	StoredAt    time.Time         `json:"storedAt"`
}

// Store is the minimal S3-like surface the archive needs.
type Store interface {
	// Put writes a new document. It fails with ErrExists when key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns the document body; ErrNotFound when missing.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// List returns documents under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Delete reports whether a document was removed.
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}

// Presigner is implemented by drivers that can hand out time-limited download links.
type Presigner interface {
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var (
	ErrExists     = errors.New("archive: document already exists")
	ErrNotFound   = errors.New("archive: document not found")
	ErrInvalidKey = errors.New("archive: invalid key")
)

// CleanKey rejects empty, absolute and escaping keys and returns the
// slash-normalized form.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(trimmed, "/") || strings.Contains(trimmed, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q escapes the archive", ErrInvalidKey, key)
		}
	}
	return path.Clean(trimmed), nil
}

// CloneMetadata copies m; nil stays nil.
func CloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
