// Package cli implements the pcbtrace command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/boardwatch"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/config"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/observability"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	BoardPath    string
	OutputFormat string
	LogLevel     string
}

// app carries the dependencies built once per invocation.
type app struct {
	opts      *RootOptions
	cfg       *config.Config
	log       logging.Logger
	registry  *prometheus.Registry
	collector *observability.TraceCollector
	svc       *core.TraceService
	shutdown  func(context.Context) error
	out       io.Writer
}

var errNoBoard = errors.New("no board file given; use --board or PCBTRACE_BOARD")

// NewRootCommand builds the pcbtrace command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	a := &app{opts: opts}

	cmd := &cobra.Command{
		Use:   "pcbtrace",
		Short: "Trace copper paths, lengths and impedance on a PCB",
		Long: `pcbtrace loads a board export (pads, tracks, arcs, vias) and answers
connectivity questions about it.

Examples:
  pcbtrace --board board.json nets
  pcbtrace --board board.json length U1.11 R66.1
  pcbtrace --board board.json path U1.11 R66.1 -o json
  pcbtrace --board board.json multinet J1.1 U5.3 --jumper R10.1=R10.2
  pcbtrace --board board.json serve-metrics --addr :9464`,
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			observability.ShutdownWithTimeout(cmd.Context(), a.shutdown, a.log)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (YAML)")
	pf.StringVarP(&opts.BoardPath, "board", "b", "", "board JSON file")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newNetsCmd(a),
		newComponentsCmd(a),
		newLengthCmd(a),
		newPathCmd(a),
		newImpedanceCmd(a),
		newMultiNetCmd(a),
		newNetReportCmd(a),
		newServeMetricsCmd(a),
		newWatchCmd(a),
	)
	return cmd
}

// Execute runs the command tree and returns a process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) init(cmd *cobra.Command) error {
	switch a.opts.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported output format %q; expected text or json", a.opts.OutputFormat)
	}

	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}
	if a.opts.BoardPath != "" {
		cfg.Board = a.opts.BoardPath
	}
	if a.opts.LogLevel != "" {
		cfg.Log.Level = a.opts.LogLevel
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	a.log = logging.New(logCfg)

	ctx := cmd.Context()
	a.shutdown, err = observability.InitTracing(ctx, cfg.TracingConfig(), a.log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	a.registry = prometheus.NewRegistry()
	a.collector, err = observability.NewTraceCollector(a.registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	a.svc = core.NewTraceService(cfg.EngineConfig(),
		core.WithLogger(a.log),
		core.WithMetricsRecorder(a.collector),
		core.WithStackup(cfg.StackupModel()),
	)
	return nil
}

// loadBoard reads the configured board file into the service.
func (a *app) loadBoard(ctx context.Context) error {
	if a.cfg.Board == "" {
		return errNoBoard
	}
	summary, err := boardwatch.New(a.cfg.Board, a.svc).LoadOnce(ctx)
	if err != nil {
		return fmt.Errorf("load board %s: %w", a.cfg.Board, err)
	}
	a.log.Debug(ctx, "board loaded",
		logging.String("path", a.cfg.Board),
		logging.Int("objects", summary.Objects()),
		logging.Int("nets", summary.Nets),
	)
	return nil
}

func (a *app) watcher(opts ...boardwatch.Option) *boardwatch.Watcher {
	return boardwatch.New(a.cfg.Board, a.svc, append([]boardwatch.Option{boardwatch.WithLogger(a.log)}, opts...)...)
}
