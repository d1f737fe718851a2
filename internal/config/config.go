// Package config loads curriculumd settings from defaults, an optional YAML
// file, an optional .env file and CURRICULUM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"curriculumcore/internal/blob"
	"curriculumcore/internal/core"
)

// EnvPrefix is prepended to every environment override, e.g.
// CURRICULUM_STORAGE_DRIVER.
const EnvPrefix = "CURRICULUM"

// Config is the resolved runtime configuration.
type Config struct {
	Storage core.StorageConfig
	Blob    blob.Config
	// ArchiveEnabled wires the blob store as the snapshot archive.
	ArchiveEnabled     bool
	BackupBeforeImport bool
	HTTPAddr           string
	LogLevel           slog.Level
	LogFormat          string
	AuditLog           bool
}

// New returns a viper instance carrying defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("storage.driver", string(core.StorageSQLite))
	v.SetDefault("storage.sqlite_path", "curriculum.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("blob.driver", string(blob.DriverFilesystem))
	v.SetDefault("blob.fs_root", "snapshots-archive")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.prefix", "")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("blob.s3.session_token", "")
	v.SetDefault("blob.s3.path_style", false)
	v.SetDefault("archive.enabled", true)
	v.SetDefault("import.backup", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("audit.log", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnvFile loads path into the process environment. A missing default
// .env is ignored; an explicitly named file must exist.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ReadFile merges a YAML config file into v when path is non-empty.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Resolve converts v into a Config, rejecting unknown drivers and levels.
func Resolve(v *viper.Viper) (Config, error) {
	cfg := Config{
		Storage: core.StorageConfig{
			Driver:      core.StorageDriver(strings.ToLower(v.GetString("storage.driver"))),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Blob: blob.Config{
			Driver: blob.Driver(strings.ToLower(v.GetString("blob.driver"))),
			FSRoot: v.GetString("blob.fs_root"),
			S3: blob.S3Config{
				Region:          v.GetString("blob.s3.region"),
				Bucket:          v.GetString("blob.s3.bucket"),
				Prefix:          v.GetString("blob.s3.prefix"),
				Endpoint:        v.GetString("blob.s3.endpoint"),
				AccessKeyID:     v.GetString("blob.s3.access_key_id"),
				SecretAccessKey: v.GetString("blob.s3.secret_access_key"),
				SessionToken:    v.GetString("blob.s3.session_token"),
				PathStyle:       v.GetBool("blob.s3.path_style"),
			},
		},
		ArchiveEnabled:     v.GetBool("archive.enabled"),
		BackupBeforeImport: v.GetBool("import.backup"),
		HTTPAddr:           v.GetString("http.addr"),
		LogFormat:          strings.ToLower(v.GetString("log.format")),
		AuditLog:           v.GetBool("audit.log"),
	}

	switch cfg.Storage.Driver {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if cfg.Storage.PostgresDSN == "" {
			return Config{}, fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	switch cfg.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if cfg.ArchiveEnabled && cfg.Blob.S3.Bucket == "" {
			return Config{}, fmt.Errorf("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
	if cfg.BackupBeforeImport && !cfg.ArchiveEnabled {
		cfg.BackupBeforeImport = false
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return Config{}, fmt.Errorf("log.level: %w", err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return cfg, nil
}

// Load reads the env file and config file then resolves v.
func Load(v *viper.Viper, configFile, envFile string) (Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	if err := ReadFile(v, configFile); err != nil {
		return Config{}, err
	}
	return Resolve(v)
}
