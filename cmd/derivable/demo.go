package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/derivable/internal/demo"
	"github.com/vango-dev/derivable/pkg/metrics"
	"github.com/vango-dev/derivable/pkg/reactive"
)

func demoCmd(flags *globalFlags) *cobra.Command {
	var (
		debug       bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the shopping cart scenario",
		Long: `Run a scripted scenario over a small cart graph and print every
delivery of the label reactor.

The scenario sets an atom, commits a transaction, rolls one back,
drives the total into an error and reads an autoCache derivation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			opts := []reactive.RuntimeOption{
				reactive.WithLogger(cfg.Log.NewLogger(cmd.ErrOrStderr())),
				reactive.WithDebug(debug || cfg.Runtime.Debug),
			}
			var registry *prometheus.Registry
			if showMetrics {
				registry = prometheus.NewRegistry()
				opts = append(opts, reactive.WithHooks(metrics.New(
					metrics.WithRegistry(registry),
					metrics.WithNamespace(cfg.Metrics.Namespace),
				)))
			}

			rt := reactive.NewRuntime(opts...)
			if err := demo.Run(out, demo.NewCart(rt)); err != nil {
				return err
			}

			if registry != nil {
				return printMetrics(out, registry)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable runtime debug mode")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print engine counters after the run")

	return cmd
}

// printMetrics writes the counter and gauge samples of g, one per line.
func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n> metrics")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(w, "  %s %g\n", name, value)
		}
	}
	return nil
}
