package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasktimer/pkg/config"
	"github.com/harrisonrobin/tasktimer/pkg/export"
	"github.com/harrisonrobin/tasktimer/pkg/store"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func PrintVersion() string {
	return fmt.Sprintf("tasktimer v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

type rootOptions struct {
	configPath string
	storePath  string
	logLevel   string
}

// app is built once flags are parsed, before any subcommand runs.
type app struct {
	cfg        *config.Config
	dispatcher *Dispatcher
}

// NewRootCommand builds the tasktimer command tree. With no subcommand it
// runs the interactive prompt loop.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "tasktimer",
		Short: "Track time spent on named tasks",
		Long: `tasktimer keeps a list of named tasks in a CSV file and tracks how long
each one runs between start and stop.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsSetup(cmd) {
				return nil
			}
			return a.setup(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/tasktimer/config.yaml)")
	flags.StringVar(&opts.storePath, "store", "", "task list CSV file (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Run the interactive prompt",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell(cmd)
			},
		},
		a.taskCommand("create NAME", "create", "Create a new task"),
		a.taskCommand("start NAME", "start", "Start tracking time for a task"),
		a.taskCommand("stop NAME", "stop", "Stop a task and show time spent"),
		a.taskCommand("time-of NAME", "time_of", "Show time spent on a task"),
		a.taskCommand("delete NAME", "delete", "Delete a task"),
		a.taskCommand("reset NAME", "reset", "Set a task back to idle"),
		&cobra.Command{
			Use:   "list",
			Short: "List all tasks and their time spent",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.dispatcher.Execute("list_tasks", "")
			},
		},
		a.exportCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
			},
		},
	)

	return cmd
}

// skipsSetup reports whether cmd runs without a config or task store: the
// version command and cobra's help and completion commands.
func skipsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func (a *app) setup(cmd *cobra.Command, opts *rootOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if opts.storePath != "" {
		cfg.StorePath = opts.storePath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger, err := NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath,
		store.WithLogger(logger),
		store.WithCreate(cfg.ShouldCreateStore()),
	)
	if err != nil {
		return err
	}
	logger.Debug("task store ready", "path", cfg.StorePath)

	a.cfg = cfg
	a.dispatcher = &Dispatcher{
		Store:     st,
		Out:       cmd.OutOrStdout(),
		ExportDir: cfg.ExportDir,
		Logger:    logger,
	}
	return nil
}

func (a *app) shell(cmd *cobra.Command) error {
	a.dispatcher.Prompter = NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	return a.dispatcher.Run()
}

func (a *app) taskCommand(use, word, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatcher.Execute(word, args[0])
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = filepath.Join(a.cfg.ExportDir, f.FileName())
			}
			return a.dispatcher.exportTo(f, path)
		},
	}
	names := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		names = append(names, string(f))
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "export format: "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default export.<format> in the export directory)")
	return cmd
}

// NewLogger returns a text slog logger writing to w at the named level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
