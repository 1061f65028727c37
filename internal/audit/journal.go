// Package audit selects the deletion journal backend.
package audit

import (
	"context"
	"fmt"

	"labqms/internal/infra/persistence/memory"
	"labqms/internal/infra/persistence/postgres"
	"labqms/internal/infra/persistence/sqlite"
	"labqms/pkg/domain"
)

// Driver identifies a concrete journal implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-process only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Config carries the journal settings loaded from the environment.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
}

// Open returns the journal named by cfg.Driver. An empty driver defaults to
// sqlite.
func Open(ctx context.Context, cfg Config) (domain.DeletionJournal, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.NewJournal(), nil
	case DriverSQLite:
		j, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return j, nil
	case DriverPostgres:
		j, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown audit driver %s", driver)
	}
}
