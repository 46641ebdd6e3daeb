package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zjrosen/nodekit/internal/log"
	"github.com/zjrosen/nodekit/internal/metrics"
	"github.com/zjrosen/nodekit/internal/watcher"
	"github.com/zjrosen/nodekit/internal/workspace"
)

var (
	watchMetricsAddr string
	watchFollowLog   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [project...]",
	Short: "Check models again whenever their files change",
	Long: `Load the models once, then watch the projects/ and typekits/ directories of
every model path and check them again after each burst of changes.

When metrics are enabled (metrics.enabled or --metrics-addr) the loader
metrics are served in the Prometheus text format at /metrics.

Examples:
  nodekit watch
  nodekit watch robots --metrics-addr :9464
  nodekit watch --debug --follow-log`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve /metrics on this address (overrides metrics.addr)")
	watchCmd.Flags().BoolVar(&watchFollowLog, "follow-log", false, "echo debug log lines to stderr (needs --debug)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, closeWS, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer closeWS()

	w, err := watcher.New(watcher.Config{Dirs: ws.Dirs(), DebounceDur: cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	changes, err := w.Start()
	if err != nil {
		return err
	}

	addr := watchMetricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		server := serveMetrics(addr, metrics.DefaultRegistry())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "serving metrics on %s/metrics\n", addr)
	}

	if watchFollowLog {
		if l := log.NewListener(ctx); l != nil {
			go followLog(l, cmd.ErrOrStderr())
		}
	}

	out := cmd.OutOrStdout()
	if err := recheck(out, ws, args); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			log.Info(log.CatCLI, "reloading", "projects", len(change.Projects), "typekits", len(change.Typekits))
			ws.Reload(change)
			_, _ = fmt.Fprintf(out, "\n%s changed: %v %v\n", time.Now().Format(time.TimeOnly), change.Projects, change.Typekits)
			if err := recheck(out, ws, args); err != nil {
				return err
			}
		}
	}
}

func recheck(w io.Writer, ws *workspace.Workspace, projects []string) error {
	report, err := ws.LoadAll(projects...)
	if err != nil {
		return err
	}
	writeReport(w, report)
	return nil
}

func serveMetrics(addr string, m *metrics.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.PrometheusRegistry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatMetrics, "metrics server failed", err, "addr", addr)
		}
	}()
	return server
}

func followLog(l *log.Listener, w io.Writer) {
	for {
		event, ok := l.Next()
		if !ok {
			return
		}
		_, _ = io.WriteString(w, event.Payload)
	}
}
