package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/lexandro/codesnap/config"
	"github.com/lexandro/codesnap/filter"
	"github.com/lexandro/codesnap/register"
	"github.com/lexandro/codesnap/search"
	"github.com/lexandro/codesnap/server"
	"github.com/lexandro/codesnap/tools"
	"github.com/lexandro/codesnap/watcher"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const serveLogFile = "codesnap/codesnap.log"

// cliOptions holds the flags shared by every snapshot command.
type cliOptions struct {
	directories   []string
	files         []string
	output        string
	extensions    []string
	excludeDirs   []string
	maxSizeMB     float64
	maxDepth      int
	indexPath     string
	includeHidden bool
	noIgnoreFiles bool
	debounce      time.Duration
	resync        time.Duration
	workers       int
	quiet         bool
	logLevel      string
	logFile       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "codesnap",
		Short: "Concatenate a codebase into a single text snapshot",
		Long: `codesnap writes the files of one or more directories into a single text
snapshot (directory tree followed by every file's contents) for LLM input.
A content-hash index next to the project makes repeated runs incremental.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}

	root.Flags().StringSliceVarP(&opts.files, "files", "f", nil, "Snapshot only these files instead of walking the directories")

	flags := root.PersistentFlags()
	flags.StringSliceVarP(&opts.directories, "directories", "d", []string{"."}, "Directories to snapshot")
	flags.StringVarP(&opts.output, "output", "o", config.DefaultOutput, "Snapshot output file")
	flags.StringSliceVarP(&opts.extensions, "extensions", "e", nil, "File extensions to include (default: user defaults or built-in list)")
	flags.StringSliceVar(&opts.excludeDirs, "exclude-dirs", nil, "Directory name patterns to skip (default: user defaults or built-in list)")
	flags.Float64Var(&opts.maxSizeMB, "max-size", 0, "Maximum file size in MB (0 = unlimited)")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "Maximum directory depth (0 = unlimited)")
	flags.StringVar(&opts.indexPath, "index", config.DefaultIndexFile, "Index file used for incremental runs")
	flags.BoolVar(&opts.includeHidden, "include-hidden", false, "Include hidden files and directories")
	flags.BoolVar(&opts.noIgnoreFiles, "no-ignore-files", false, "Do not apply .gitignore and .codesnapignore")
	flags.DurationVar(&opts.debounce, "debounce", config.DefaultDebounce, "Quiet period before a watch rebuild")
	flags.DurationVar(&opts.resync, "resync", 0, "Full rescan interval while watching (0 = off)")
	flags.IntVar(&opts.workers, "workers", config.DefaultWorkers, "Number of hashing workers")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only log warnings and errors")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (default: stderr)")

	root.AddCommand(
		newWatchCommand(opts),
		newServeCommand(opts),
		newConfigCommand(),
		newRegisterCommand(),
	)
	return root
}

func newWatchCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Write the snapshot, then rebuild it whenever files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := setupLogger(opts.level(), opts.logFile)

			cfg, err := buildConfig(cmd, opts, logger)
			if err != nil {
				return err
			}
			snap, err := newSnapshotter(cfg, logger)
			if err != nil {
				return err
			}
			summary, err := snap.Run(ctx)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), cfg, summary, opts.quiet)

			return watchRoots(ctx, cfg, snap, logger, nil)
		},
	}
}

func newServeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the live snapshot to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}
}

func runOnce(cmd *cobra.Command, opts *cliOptions) error {
	logger := setupLogger(opts.level(), opts.logFile)

	cfg, err := buildConfig(cmd, opts, logger)
	if err != nil {
		return err
	}
	snap, err := newSnapshotter(cfg, logger)
	if err != nil {
		return err
	}
	summary, err := snap.Run(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), cfg, summary, opts.quiet)
	return nil
}

func serve(cmd *cobra.Command, opts *cliOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// stdout carries MCP, so logs go to a file unless told otherwise.
	logFile := opts.logFile
	if logFile == "" {
		if p, err := xdg.StateFile(serveLogFile); err == nil {
			logFile = p
		}
	}
	logger := setupLogger(opts.level(), logFile)

	cfg, err := buildConfig(cmd, opts, logger)
	if err != nil {
		return err
	}
	logger.Info("starting codesnap server", "roots", cfg.Roots, "output", cfg.Output)
	startTime := time.Now()

	searchIndex, err := search.New()
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}
	defer searchIndex.Close()

	snap, err := newSnapshotter(cfg, logger)
	if err != nil {
		return err
	}
	snap.Observe(searchIndex)
	if _, err := snap.Run(ctx); err != nil {
		return err
	}

	var loop atomic.Pointer[watcher.Loop]
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := watchRoots(ctx, cfg, snap, logger, loop.Store); err != nil {
			logger.Warn("watcher stopped, continuing without live updates", "error", err)
		}
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	info := func() tools.SnapshotInfo {
		i := snap.Info()
		if l := loop.Load(); l != nil {
			i.WatchState = l.State().String()
		}
		return i
	}

	mcpServer := server.Setup(
		&tools.SearchHandler{Search: searchIndex, Logger: logger},
		&tools.FilesHandler{Index: snap.Index, Logger: logger},
		&tools.StatusHandler{
			Index:     snap.Index,
			Info:      info,
			Search:    searchIndex,
			StartTime: startTime,
			Logger:    logger,
		},
		&tools.RebuildHandler{DoRebuild: snap.Run, Logger: logger},
		&tools.ReadHandler{Search: searchIndex, Logger: logger},
	)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server error", "error", err)
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

// buildConfig layers flags over the user defaults file over built-in
// defaults and resolves the result.
func buildConfig(cmd *cobra.Command, opts *cliOptions, logger *slog.Logger) (config.Config, error) {
	cfg := config.Defaults()

	if path, err := config.UserConfigPath(); err != nil {
		logger.Warn("user config unavailable", "error", err)
	} else if defaults, err := config.LoadUserDefaults(path); err != nil {
		logger.Warn("ignoring user config", "path", path, "error", err)
	} else {
		defaults.Apply(&cfg)
	}

	flags := cmd.Flags()
	cfg.Roots = opts.directories
	cfg.Files = opts.files
	cfg.Output = opts.output
	cfg.IndexPath = opts.indexPath
	if flags.Changed("extensions") {
		cfg.Extensions = opts.extensions
	}
	if flags.Changed("exclude-dirs") {
		cfg.ExcludeDirs = opts.excludeDirs
	}
	if opts.maxSizeMB < 0 {
		return cfg, fmt.Errorf("max size must not be negative: %g", opts.maxSizeMB)
	}
	cfg.MaxSizeBytes = int64(opts.maxSizeMB * config.BytesPerMB)
	cfg.MaxDepth = opts.maxDepth
	cfg.SkipHidden = !opts.includeHidden
	cfg.RespectIgnoreFiles = !opts.noIgnoreFiles
	cfg.Debounce = opts.debounce
	cfg.ResyncInterval = opts.resync
	cfg.Workers = opts.workers

	if err := cfg.Resolve(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printSummary(w io.Writer, cfg config.Config, summary tools.RebuildSummary, quiet bool) {
	if quiet {
		return
	}
	c := summary.Changes
	if summary.Rendered {
		fmt.Fprintf(w, "Snapshot written to %s (%d files: +%d ~%d -%d)\n",
			cfg.Output, summary.Included, len(c.Added), len(c.Modified), len(c.Removed))
		return
	}
	fmt.Fprintf(w, "Snapshot up to date: %s (%d files)\n", cfg.Output, summary.Included)
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the persisted user defaults",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the user defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, defaults, err := loadUserDefaults()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Config file: %s\n", path)
			fmt.Fprintf(w, "Extensions: %s\n", strings.Join(defaults.Extensions, " "))
			fmt.Fprintf(w, "Excluded directories: %s\n", strings.Join(defaults.ExcludeDirs, " "))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-extensions EXT...",
		Short: "Set the default file extensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateUserDefaults(cmd, func(d *config.UserDefaults) {
				d.Extensions = make([]string, len(args))
				for i, ext := range args {
					d.Extensions[i] = filter.NormalizeExtension(ext)
				}
			})
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-exclude-dirs DIR...",
		Short: "Set the default excluded directory patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateUserDefaults(cmd, func(d *config.UserDefaults) {
				d.ExcludeDirs = append([]string(nil), args...)
			})
		},
	})

	return configCmd
}

func newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register project|user [directory] [-- serve flags]",
		Short: "Add \"codesnap serve\" to an MCP client configuration",
		Long: `register writes a "codesnap" entry under mcpServers.

  codesnap register project [directory]   # <directory>/.mcp.json (default: .)
  codesnap register user                  # ~/.claude.json
  codesnap register project . -- -q       # forward flags to codesnap serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, serveArgs := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, serveArgs = args[:dash], args[dash:]
			}
			if len(positional) == 0 || len(positional) > 2 {
				return fmt.Errorf("expected a scope and an optional directory, got %d arguments", len(positional))
			}

			scope, err := register.ParseScope(positional[0])
			if err != nil {
				return err
			}
			opts := register.Options{Scope: scope, ServeArgs: serveArgs}
			if len(positional) == 2 {
				opts.Directory = positional[1]
			}

			path, err := register.Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", register.ServerName, path)
			return nil
		},
	}
}

func loadUserDefaults() (string, config.UserDefaults, error) {
	path, err := config.UserConfigPath()
	if err != nil {
		return "", config.UserDefaults{}, err
	}
	defaults, err := config.LoadUserDefaults(path)
	if err != nil {
		return path, config.UserDefaults{}, err
	}
	return path, defaults, nil
}

func updateUserDefaults(cmd *cobra.Command, update func(*config.UserDefaults)) error {
	path, defaults, err := loadUserDefaults()
	if err != nil {
		return err
	}
	update(&defaults)
	if err := config.SaveUserDefaults(path, defaults); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved user defaults to %s\n", path)
	return nil
}

// level lowers the default level when --quiet is set.
func (o *cliOptions) level() string {
	if o.quiet && strings.EqualFold(o.logLevel, "info") {
		return "warn"
	}
	return o.logLevel
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
