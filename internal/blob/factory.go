package blob

import (
	"context"
	"fmt"

	"curriculumcore/internal/infra/blob/fs"
	memorystore "curriculumcore/internal/infra/blob/memory"
	infraS3 "curriculumcore/internal/infra/blob/s3"
)

// S3Config re-exports the infra S3 configuration type.
type S3Config = infraS3.Config

// Config selects and parameterises a blob backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open selects a Store implementation from cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return infraS3.New(ctx, cfg.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
