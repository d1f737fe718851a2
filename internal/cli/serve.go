package cli

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"curriculumcore/internal/adapters/httpapi"
	"curriculumcore/internal/core"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the /api/v1 HTTP API, /metrics and /debug/vars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	bindFlag(a.v, "http.addr", cmd, "addr")
	return cmd
}

// newMux wires the API, Prometheus and expvar endpoints for svc.
func newMux(svc *core.Service, reg *prometheus.Registry, logger core.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", httpapi.NewHandler(svc, logger))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return err
	}
	metrics := core.MultiMetricsRecorder{prom, core.NewExpvarMetricsRecorder("")}

	svc, err := a.openService(ctx, core.WithMetricsRecorder(metrics))
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	if _, err := svc.EnsureAdminTab(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           newMux(svc, reg, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
