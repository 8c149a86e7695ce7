package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/boardwatch"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/spf13/cobra"
)

func newServeMetricsCmd(a *app) *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus /metrics for the loaded board until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Metrics.Addr
			}
			if a.cfg.Board != "" {
				if err := a.loadBoard(ctx); err != nil {
					return err
				}
			} else if watch {
				return errNoBoard
			}

			a.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			srv := serveMetrics(lis, a)
			defer shutdownServer(srv, a.log)

			if watch {
				return a.watcher().Run(ctx)
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from metrics.addr)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the board when the file changes")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the board on every change and print a load summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.loadBoard(ctx); err != nil {
				return err
			}
			printSummary := func(s *core.LoadSummary, err error) {
				if err != nil {
					fmt.Fprintf(a.out, "reload failed: %v\n", err)
					return
				}
				fmt.Fprintf(a.out, "loaded %d pads, %d tracks, %d arcs, %d vias on %d nets (skipped: %d no net, %d degenerate, %d duplicate)\n",
					s.Pads, s.Tracks, s.Arcs, s.Vias, s.Nets, s.SkippedNoNet, s.SkippedDegenerate, s.SkippedDuplicate)
			}
			if b := a.svc.Board(); b != nil {
				s := b.Summary()
				printSummary(&s, nil)
			}
			return a.watcher(boardwatch.WithReloadHook(printSummary)).Run(ctx)
		},
	}
}

func serveMetrics(lis net.Listener, a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.collector.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()
	a.log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", lis.Addr().String()))
	return srv
}

func shutdownServer(srv *http.Server, log logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn(ctx, "metrics server shutdown failed", logging.Err(err))
	}
}
