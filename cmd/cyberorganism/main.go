package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Brandtweary/cyberorganism/internal/adapters/server"
	"github.com/Brandtweary/cyberorganism/internal/adapters/storage/sqlite"
	"github.com/Brandtweary/cyberorganism/internal/app"
	"github.com/Brandtweary/cyberorganism/internal/command"
	"github.com/Brandtweary/cyberorganism/internal/config"
	"github.com/Brandtweary/cyberorganism/internal/display"
	"github.com/Brandtweary/cyberorganism/internal/genius"
	"github.com/Brandtweary/cyberorganism/internal/graph"
	"github.com/Brandtweary/cyberorganism/internal/platform"
	"github.com/Brandtweary/cyberorganism/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// cliOptions carries persistent flag state shared by every subcommand.
type cliOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeState resolves flags, environment, and config into one startup view.
type runtimeState struct {
	cfg          config.Config
	paths        platform.Paths
	configPath   string
	dbOverridden bool
}

// newRootCmd constructs the CLI tree. Running with no subcommand starts the TUI.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("CYBERORGANISM_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultAppName := strings.TrimSpace(os.Getenv("CYBERORGANISM_APP_NAME"))
	if defaultAppName == "" {
		defaultAppName = "cyberorganism"
	}

	cmd := &cobra.Command{
		Use:          "cyberorganism",
		Short:        "Keyboard-driven personal knowledge manager",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts, cmd.ErrOrStderr())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config TOML")
	pf.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&opts.appName, "app", defaultAppName, "application name for config/data path resolution")
	pf.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	cmd.AddCommand(
		newServeCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newPathsCmd(opts),
	)
	return cmd
}

// resolveRuntime applies flag/env/config precedence and loads the TOML config.
func resolveRuntime(opts *cliOptions) (runtimeState, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return runtimeState{}, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("CYBERORGANISM_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("CYBERORGANISM_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return runtimeState{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	return runtimeState{
		cfg:          cfg,
		paths:        paths,
		configPath:   configPath,
		dbOverridden: dbOverridden,
	}, nil
}

// openService opens the sqlite repository and wraps it in the task service.
func openService(rt runtimeState) (*app.Service, func() error, error) {
	repo, err := sqlite.Open(rt.cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	return app.NewService(repo, uuid.NewString, nil), repo.Close, nil
}

// runTUI starts the interactive task view.
func runTUI(opts *cliOptions, stderr io.Writer) error {
	rt, err := resolveRuntime(opts)
	if err != nil {
		return err
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, rt.cfg.Logging, rt.paths.LogPath)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	// Keep TUI rendering clean: runtime logs stay in the file sink while the view is active.
	logger.SetConsoleEnabled(false)
	defer func() {
		_ = logger.Close()
	}()

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", "tui")
	logger.Debug("runtime paths resolved", "config_path", rt.configPath, "data_dir", rt.paths.DataDir, "db_path", rt.cfg.Database.Path)

	svc, closeRepo, err := openService(rt)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", rt.cfg.Database.Path, "err", err)
		return err
	}
	defer func() {
		if closeErr := closeRepo(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", rt.cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Info("sqlite repository ready", "db_path", rt.cfg.Database.Path)

	engine := display.NewEngine()
	activity := display.NewActivityLog()
	exec := command.NewExecutor(svc, engine, activity)

	client := genius.NewClient(genius.Config{
		BaseURL:        rt.cfg.Genius.BaseURL,
		APIKey:         rt.cfg.Genius.APIKey,
		OrganizationID: rt.cfg.Genius.OrganizationID,
		Timeout:        time.Duration(rt.cfg.Genius.TimeoutSeconds) * time.Second,
	}, logger.Component("genius"))
	bridge := genius.NewBridge(client)
	if client.MockMode() {
		logger.Info("genius feed running in mock mode")
	}

	m := tui.NewModel(exec, engine, activity,
		tui.WithBridge(bridge),
		tui.WithKeyOverrides(tui.KeyOverrides{
			ToggleFold:  rt.cfg.Keys.ToggleFold,
			CollapseAll: rt.cfg.Keys.CollapseAll,
			ShowFeed:    rt.cfg.Keys.ShowFeed,
			YankTask:    rt.cfg.Keys.YankTask,
			Help:        rt.cfg.Keys.Help,
		}),
	)

	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// newServeCmd runs the knowledge graph backend server.
func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the knowledge graph backend server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}
}

func runServe(ctx context.Context, opts *cliOptions, stderr io.Writer) error {
	rt, err := resolveRuntime(opts)
	if err != nil {
		return err
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, rt.cfg.Logging, rt.paths.LogPath)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	defer func() {
		_ = logger.Close()
	}()

	// Only one backend instance owns the data dir; ask a running one to exit.
	if platform.TerminatePreviousInstance(rt.paths.PIDPath) {
		logger.Info("terminated previous server instance", "pid_path", rt.paths.PIDPath)
	}
	if err := platform.WritePIDFile(rt.paths.PIDPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer func() {
		if removeErr := platform.RemovePIDFile(rt.paths.PIDPath); removeErr != nil {
			logger.Warn("remove pid file failed", "pid_path", rt.paths.PIDPath, "err", removeErr)
		}
	}()

	svc, closeRepo, err := openService(rt)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", rt.cfg.Database.Path, "err", err)
		return err
	}
	defer func() {
		if closeErr := closeRepo(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", rt.cfg.Database.Path, "err", closeErr)
		}
	}()

	store, err := graph.Open(rt.paths.GraphDir, logger.Component("graph"))
	if err != nil {
		return fmt.Errorf("open knowledge graph datastore: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("command flow start", "command", "serve", "host", rt.cfg.Backend.Host, "port", rt.cfg.Backend.Port)
	err = server.Run(ctx, server.Config{
		Host:            rt.cfg.Backend.Host,
		Port:            rt.cfg.Backend.Port,
		MaxPortAttempts: rt.cfg.Backend.MaxPortAttempts,
		ServerVersion:   version,
	}, server.Dependencies{
		Graph:  store,
		Tasks:  svc,
		Logger: logger.Component("server"),
	})
	if err != nil {
		logger.Error("command flow failed", "command", "serve", "err", err)
		return err
	}
	logger.Info("command flow complete", "command", "serve")
	return nil
}

// newExportCmd writes all tasks as a JSON snapshot.
func newExportCmd(opts *cliOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as a JSON snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(opts)
			if err != nil {
				return err
			}
			svc, closeRepo, err := openService(rt)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()

			if outPath == "" || outPath == "-" {
				return svc.ExportSnapshot(cmd.Context(), cmd.OutOrStdout())
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create export output dir: %w", err)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := svc.ExportSnapshot(cmd.Context(), f); err != nil {
				_ = f.Close()
				return fmt.Errorf("export snapshot: %w", err)
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCmd loads tasks from a JSON snapshot, skipping existing ids.
func newImportCmd(opts *cliOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load tasks from a JSON snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			rt, err := resolveRuntime(opts)
			if err != nil {
				return err
			}
			svc, closeRepo, err := openService(rt)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeRepo()
			}()

			f, err := os.Open(inPath)
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer func() {
				_ = f.Close()
			}()

			imported, err := svc.ImportSnapshot(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", imported)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// newPathsCmd prints the resolved runtime paths.
func newPathsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: opts.appName,
				DevMode: opts.devMode,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "graph_dir: %s\n", paths.GraphDir)
			_, _ = fmt.Fprintf(out, "pid: %s\n", paths.PIDPath)
			_, _ = fmt.Fprintf(out, "log: %s\n", paths.LogPath)
			return nil
		},
	}
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and a logfmt file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	fileSink       *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	logPath        string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state. The
// config log path wins over the platform default; an empty resolved path
// disables file logging.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig, fallbackPath string) (*runtimeLogger, error) {
	levelName := strings.TrimSpace(cfg.Level)
	if levelName == "" {
		levelName = "info"
	}
	level, err := charmLog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}

	logPath := strings.TrimSpace(cfg.Path)
	if logPath == "" {
		logPath = strings.TrimSpace(fallbackPath)
	}
	if logPath == "" {
		return logger, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.fileSink = fileLogger
	logger.closeFile = logFile.Close
	logger.logPath = logPath
	return logger, nil
}

// LogPath returns the active log file path.
func (l *runtimeLogger) LogPath() string {
	if l == nil {
		return ""
	}
	return l.logPath
}

// Component returns a prefixed logger suitable for passing into subsystems.
// It prefers the file sink so TUI rendering stays clean.
func (l *runtimeLogger) Component(name string) *charmLog.Logger {
	if l == nil {
		return charmLog.New(io.Discard)
	}
	if l.fileSink != nil {
		return l.fileSink.WithPrefix(name)
	}
	return l.consoleSink.WithPrefix(name)
}

// Close closes the optional file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}
