package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"curriculumcore/internal/blob"
	"curriculumcore/internal/config"
	"curriculumcore/internal/core"
)

// app carries state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configFile string
	envFile    string
	cfg        config.Config
	logger     *slog.Logger
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configFile, a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg)
	return nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openService opens storage and, when enabled, the snapshot archive.
func (a *app) openService(ctx context.Context, extra ...core.Option) (*core.Service, error) {
	store, err := core.OpenPersistentStore(ctx, a.cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", a.cfg.Storage.Driver, err)
	}
	opts := []core.Option{core.WithLogger(a.logger)}
	if a.cfg.AuditLog {
		opts = append(opts, core.WithAuditRecorder(core.LoggerAuditRecorder{Logger: a.logger}))
	}
	if a.cfg.ArchiveEnabled {
		blobs, err := blob.Open(ctx, a.cfg.Blob)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open %s archive: %w", a.cfg.Blob.Driver, err)
		}
		opts = append(opts, core.WithArchive(core.NewArchive(blobs, nil), a.cfg.BackupBeforeImport))
	}
	opts = append(opts, extra...)
	a.logger.Debug("service opened", "storage", a.cfg.Storage.Driver, "archive", a.cfg.ArchiveEnabled)
	return core.NewService(store, opts...), nil
}

// withService opens the service, runs fn and closes the service.
func (a *app) withService(cmd *cobra.Command, fn func(*core.Service) error) error {
	svc, err := a.openService(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("close storage", "error", err)
		}
	}()
	return fn(svc)
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
)

func printOK(w io.Writer, format string, args ...any) {
	_, _ = okColor.Fprint(w, "✓ ")
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

func printWarnings(w io.Writer, res core.Result) {
	for _, v := range res.Violations {
		_, _ = warnColor.Fprint(w, "! ")
		_, _ = fmt.Fprintf(w, "%s: %s\n", v.Rule, v.Message)
	}
}
