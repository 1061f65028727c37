// Package blob is the document archive entry point. Callers depend on Store
// and obtain a driver through Open; only this package imports the drivers.
package blob

import (
	"context"
	"fmt"

	"labqms/internal/blob/core"
	"labqms/internal/infra/blob/fs"
	"labqms/internal/infra/blob/memory"
	"labqms/internal/infra/blob/s3"
)

type (
	Driver     = core.Driver
	PutOptions = core.PutOptions
	Info       = core.Info
	Store      = core.Store
	Presigner  = core.Presigner
	// S3Config configures the s3 driver.
	S3Config = s3.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrExists     = core.ErrExists
	ErrNotFound   = core.ErrNotFound
	ErrInvalidKey = core.ErrInvalidKey
)

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open returns the store named by cfg.Driver (fs when empty).
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		st, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverS3:
		st, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an empty in-process store.
func NewMemory() Store { return memory.New() }

// NewMockS3ForTests exposes the fake-bucket S3 store for cross-package tests.
func NewMockS3ForTests() Store { return s3.NewMockForTests() }
