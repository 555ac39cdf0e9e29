// Package cli wires the cobra commands of the weekly-planner binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/williampepple1/desktop-weekly-planner/internal/config"
	"github.com/williampepple1/desktop-weekly-planner/internal/db"
	"github.com/williampepple1/desktop-weekly-planner/internal/logging"
	"github.com/williampepple1/desktop-weekly-planner/internal/planner"
	"github.com/williampepple1/desktop-weekly-planner/internal/tui"
)

type rootOptions struct {
	configPath string
	dbPath     string
	verbose    bool
	web        bool
	port       int
}

// app holds what every command needs once flags and config are resolved.
// cfg is what the config file says plus command-line flags; environment
// overrides only reach dbPath.
type app struct {
	cfg     config.Config
	cfgPath string
	dbPath  string
	logger  *slog.Logger
	store   *db.Store
	svc     *planner.Service
	closer  io.Closer
	verbose bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "weekly-planner",
		Short: "Weekly Planner - plan tasks across the days of a week",
		Long: `Weekly Planner keeps a board of tasks for each calendar week.

Run without a subcommand to open the terminal board. Enable the web board with
--web or web_enabled in the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (.json, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.Flags().BoolVar(&opts.web, "web", false, "also run the web board")
	cmd.Flags().IntVar(&opts.port, "port", 0, "web server port")

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(tuiCmd(opts))
	cmd.AddCommand(taskCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal week board",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return tui.Run(a.svc, a.logger)
		},
	}
}

// runBoard opens the terminal board, with the web board alongside when it is
// enabled. Leaving the terminal board stops the web server.
func runBoard(cmd *cobra.Command, opts *rootOptions) error {
	a, err := openApp(opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	saveBoardConfig(a, opts)

	if !a.cfg.WebEnabled {
		return tui.Run(a.svc, a.logger)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serveHTTP(gctx, newHTTPServer(a, a.cfg.WebPort), a.logger)
	})
	g.Go(func() error {
		defer cancel()
		return tui.Run(a.svc, a.logger)
	})
	return g.Wait()
}

// saveBoardConfig records the board flags in the config file.
func saveBoardConfig(a *app, opts *rootOptions) {
	if opts.web {
		a.cfg.WebEnabled = true
	}
	if opts.port != 0 {
		a.cfg.WebPort = opts.port
	}
	if err := config.Save(a.cfgPath, a.cfg); err != nil {
		a.logger.Warn("could not save config", "path", a.cfgPath, "error", err)
	}
}

// openApp resolves config, logging and storage. console sends logs to
// stderr when --verbose is set; terminal UI commands pass false.
func openApp(opts *rootOptions, console bool) (*app, error) {
	cfgPath, err := resolveConfigPath(opts.configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	effective := cfg.WithEnv()
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
		effective.DBPath = opts.dbPath
	}

	logger, closer, err := logging.Init(logging.Config{
		Level:   cfg.LogLevel,
		File:    cfg.ResolveLogFile(cfgPath),
		Verbose: opts.verbose,
		Console: console && opts.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	var store *db.Store
	if effective.DBPath != "" {
		store, err = db.OpenFile(effective.DBPath)
	} else {
		store, err = db.OpenDir(filepath.Dir(cfgPath))
	}
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	dbPath := effective.ResolveDBPath(cfgPath)
	logger.Debug("database opened", "path", dbPath)

	return &app{
		cfg:     cfg,
		cfgPath: cfgPath,
		dbPath:  dbPath,
		logger:  logger,
		store:   store,
		svc:     planner.NewService(store, logger),
		closer:  closer,
		verbose: opts.verbose,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}
	if err := a.closer.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "error closing log file:", err)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value, nil
	}
	return config.DefaultConfigPath()
}
