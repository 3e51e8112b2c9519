package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/derivable/internal/config"
	"github.com/vango-dev/derivable/internal/demo"
	"github.com/vango-dev/derivable/internal/errors"
	"github.com/vango-dev/derivable/internal/inspect"
	"github.com/vango-dev/derivable/pkg/metrics"
	"github.com/vango-dev/derivable/pkg/reactive"
	"github.com/vango-dev/derivable/pkg/tracing"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port  int
		host  string
		seed  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inspector server",
		Long: `Start the inspector server over the demo cart graph.

The server exposes the graph as JSON, accepts atom writes and
transactions, and streams reactor deliveries over a WebSocket.

Endpoints:
  GET  /graph          every registered node
  GET  /atoms          the writable nodes
  GET  /nodes/{name}   one node
  PUT  /atoms/{name}   write an atom (JSON body)
  POST /txn            apply writes in one transaction
  GET  /watch          WebSocket delivery stream
  GET  /metrics        Prometheus metrics (when enabled)

Examples:
  derivable serve
  derivable serve --port=8080
  derivable serve --seed=atoms.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Inspector.Port = port
			}
			if host != "" {
				cfg.Inspector.Host = host
			}
			if seed != "" {
				cfg.Inspector.Seed = seed
			}
			if debug {
				cfg.Runtime.Debug = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
			a, err := newApp(cfg, logger, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.InspectorAddress())
			if err != nil {
				return errors.New("R201").Wrap(err)
			}
			out := cmd.OutOrStdout()
			success(out, "Inspector listening on http://%s", ln.Addr())
			info(out, "%d nodes registered", a.reg.Len())
			return a.serve(ctx, ln)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&seed, "seed", "", "YAML or JSON file of extra atoms to register")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable runtime debug mode")

	return cmd
}

// app is the wired inspector: runtime, loop, registry and HTTP server.
type app struct {
	logger  *slog.Logger
	rt      *reactive.Runtime
	loop    *reactive.Loop
	reg     *inspect.Registry
	server  *inspect.Server
	tracer  *tracing.Tracer
	spans   *sdktrace.TracerProvider
	metrics *prometheus.Registry
}

// newApp builds the runtime with the hooks enabled in cfg, registers the
// demo cart and the seed atoms, and creates the inspector server. Spans
// of the stdout exporter are written to spanOut.
func newApp(cfg *config.Config, logger *slog.Logger, spanOut io.Writer) (*app, error) {
	a := &app{logger: logger}

	var hooks []reactive.Hooks
	if cfg.Metrics.Enabled {
		a.metrics = prometheus.NewRegistry()
		a.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		hooks = append(hooks, metrics.New(
			metrics.WithRegistry(a.metrics),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		))
	}
	if cfg.Tracing.Enabled {
		opts := []tracing.Option{tracing.WithTracerName(cfg.Tracing.TracerName)}
		if cfg.Tracing.Exporter == config.ExporterStdout {
			exporter, err := stdouttrace.New(stdouttrace.WithWriter(spanOut), stdouttrace.WithPrettyPrint())
			if err != nil {
				return nil, err
			}
			a.spans = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
			opts = append(opts, tracing.WithTracerProvider(a.spans))
		}
		a.tracer = tracing.New(opts...)
		hooks = append(hooks, a.tracer)
	}

	a.rt = reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithHooks(hooks...),
		reactive.WithDebug(cfg.Runtime.Debug),
	)
	a.loop = reactive.NewLoop(a.rt)
	a.reg = inspect.NewRegistry()

	if err := demo.NewCart(a.rt).Register(a.reg); err != nil {
		return nil, err
	}
	if path := cfg.SeedPath(); path != "" {
		seed, err := config.LoadSeed(path)
		if err != nil {
			return nil, err
		}
		if err := inspect.SeedAtoms(a.reg, a.rt, seed); err != nil {
			return nil, err
		}
		logger.Info("seed atoms registered", "path", path, "count", len(seed))
	}

	opts := []inspect.Option{inspect.WithLogger(logger)}
	if a.metrics != nil {
		opts = append(opts, inspect.WithGatherer(a.metrics))
	}
	a.server = inspect.NewServer(a.loop, a.reg, opts...)
	return a, nil
}

// serve runs the loop and the HTTP server on ln until ctx is done or one
// of them fails, then shuts both down.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.loop.Run(gctx)
		if stderrors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("R201").Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		a.server.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	// The loop has exited, so the registry can be closed from here.
	a.reg.Close()
	if a.spans != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := a.spans.Shutdown(shutdownCtx); serr != nil {
			a.logger.Warn("span exporter shutdown failed", "error", serr)
		}
	}
	return err
}
