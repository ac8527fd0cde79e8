// Command oewn looks words up in a local copy of Open English WordNet,
// downloading and building the store on first use.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/japaniel/oewn/pkg/cache"
	"github.com/japaniel/oewn/pkg/config"
	"github.com/japaniel/oewn/pkg/logging"
	"github.com/japaniel/oewn/pkg/wnerr"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		cancel()
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	switch wnerr.KindOf(err) {
	case wnerr.KindTransport:
		return 3
	case wnerr.KindArchive:
		return 4
	case wnerr.KindParse:
		return 5
	case wnerr.KindLoad:
		return 6
	case wnerr.KindQuery:
		return 7
	}
	return 1
}

type app struct {
	stdout, stderr io.Writer

	dbPath      string
	configPath  string
	forceReload bool
	verbose     int

	cfg     config.Config
	logger  *zap.Logger
	manager *cache.Manager
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "oewn",
		Short:         "Query a local Open English WordNet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.dbPath, "db-path", "", "path of the SQLite store (default: per-user data directory)")
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.BoolVar(&a.forceReload, "force-reload", false, "download and rebuild the store before running")
	pf.CountVarP(&a.verbose, "verbose", "v", "more logging (-v info, -vv debug)")

	root.AddCommand(
		newDefineCmd(a),
		newRandomCmd(a),
		newClearCmd(a),
		newInfoCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the manager.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Store.Path = a.dbPath
	}
	switch {
	case a.verbose >= 2:
		cfg.Log.Level = zapcore.DebugLevel.String()
	case a.verbose == 1:
		cfg.Log.Level = zapcore.InfoLevel.String()
	}
	a.cfg = *cfg

	a.logger, err = logging.New(a.cfg.Log)
	if err != nil {
		return err
	}
	a.manager, err = cache.NewManager(a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.manager.Progress = newProgressPrinter(a.stderr)
	return nil
}

// store returns the open store, building it when needed.
func (a *app) store(ctx context.Context) (*cache.Store, error) {
	return a.manager.ResolveOrBuild(ctx, a.forceReload)
}
