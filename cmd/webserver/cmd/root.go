// Package cmd implements the webserver command line
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jzx17/threadpool/internal/cli"
	"github.com/jzx17/threadpool/internal/config"
)

var (
	// flagConfigPath is the path to the config file
	flagConfigPath string
	// flagQuiet suppresses console output except errors
	flagQuiet bool
	// version is set at build time
	version = "dev"
)

// NewRootCommand builds the webserver command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "webserver",
		Short: "A tiny HTTP server that handles every connection on a fixed worker pool.",
		Long: `A tiny HTTP server that handles every connection on a fixed worker pool.

Routes:
  GET /        hello.html
  GET /sleep   hello.html after sleep_delay
  anything     404.html

Configuration is read from --config, or from threadpool/webserver.yaml in the
XDG config directories. Flags override the file.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress console output except errors")

	flags := root.Flags()
	flags.String("address", "", "listen address (default 127.0.0.1:7878)")
	flags.Int("workers", 0, "number of pool workers (default 4)")
	flags.String("static-dir", "", "directory containing hello.html and 404.html")
	flags.Int("max-requests", 0, "stop accepting after this many connections")
	flags.String("metrics-address", "", "serve Prometheus metrics on this address")
	flags.Duration("sleep-delay", 0, "delay applied to GET /sleep (default 5s)")
	flags.Bool("no-compress", false, "never gzip response bodies")
	flags.Bool("continue-on-panic", false, "keep workers alive after a handler panics")

	root.AddCommand(newInitConfigCommand())
	return root
}

// Execute runs the root command until SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	console := cli.NewWithWriter(cmd.ErrOrStderr(), flagQuiet)
	return serve(cmd.Context(), cfg, console, nil)
}

// applyFlags overrides cfg with flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("address") {
		cfg.Address, _ = flags.GetString("address")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("static-dir") {
		cfg.StaticDir, _ = flags.GetString("static-dir")
	}
	if flags.Changed("max-requests") {
		cfg.MaxRequests, _ = flags.GetInt("max-requests")
	}
	if flags.Changed("metrics-address") {
		cfg.MetricsAddress, _ = flags.GetString("metrics-address")
	}
	if flags.Changed("sleep-delay") {
		cfg.SleepDelay, _ = flags.GetDuration("sleep-delay")
	}
	if noCompress, _ := flags.GetBool("no-compress"); noCompress {
		cfg.Compress = false
	}
	if flags.Changed("continue-on-panic") {
		cfg.ContinueOnPanic, _ = flags.GetBool("continue-on-panic")
	}

	return cfg.Validate()
}
