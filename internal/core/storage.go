package core

import (
	"context"
	"fmt"
	"time"

	"curriculumcore/internal/infra/persistence/memory"
	"curriculumcore/internal/infra/persistence/postgres"
	"curriculumcore/internal/infra/persistence/sqlite"
	"curriculumcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// StorageConfig selects a backend. Empty fields fall back to backend defaults.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	// Now overrides the record timestamp source; nil uses UTC now.
	Now func() time.Time
}

// OpenPersistentStore opens the backend named by cfg.Driver, defaulting to
// sqlite.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *domain.RulesEngine) (PersistentStore, error) {
	var opts []memory.Option
	if cfg.Now != nil {
		opts = append(opts, memory.WithClock(cfg.Now))
	}
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine, opts...)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
