package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/derivable/internal/config"
	"github.com/vango-dev/derivable/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "derivable",
		Short: "Inspect and demo a reactive dependency graph",
		Long: `derivable drives a graph of atoms and derivations.

Derivations recompute lazily from the atoms they read, reactors
deliver changes, and transactions apply writes atomically.

  • serve: run the inspector HTTP and WebSocket server
  • demo: play a scripted shopping cart scenario
  • config init: write a default config file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"Config file (default: derivable.json or derivable.yaml in the working directory or a parent)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Log level: debug, info, warn or error (overrides the config file)")

	rootCmd.AddCommand(
		serveCmd(flags),
		demoCmd(flags),
		configCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file named by --config, or the nearest one
// above the working directory, and applies --log-level.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if f.logLevel != "" {
		if _, err := config.ParseLevel(f.logLevel); err != nil {
			return nil, errors.New("R200").
				WithDetail("--log-level must be debug, info, warn or error, got " + f.logLevel)
		}
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
