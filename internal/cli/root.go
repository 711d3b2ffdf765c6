package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"rowbind/internal/config"
	"rowbind/internal/format"
	"rowbind/internal/tui"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir  string
	DBPath     string
	LogLevel   string
	PrettyJSON bool
	Format     string
	NoColor    bool

	cfg     config.Config
	log     *slog.Logger
	logFile *os.File
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "rowbind",
		Short:        "Entity grid with sort/filter-safe row binding",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive grid
  rowbind

  # Merge entities and relations from a JSON file
  rowbind import plan.json

  # Rows in display order, with view and storage indices
  rowbind rows list --sort name --format table

  # Look up a relation
  rowbind relations find e1 e2 FS
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return tui.Run(cmd.Context(), app.cfg, app.log)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The TUI owns stdout/stderr; it logs to a file or not at all.
		interactive := cmd == cmd.Root()
		if app.NoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		return app.setup(cmd.ErrOrStderr(), interactive)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logFile != nil {
			return app.logFile.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", envOr("ROWBIND_CONFIG_DIR", ""), "Config directory (default: ~/.rowbind)")
	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("ROWBIND_DB", ""), "SQLite file (overrides db_path in config.yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("ROWBIND_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("ROWBIND_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colours")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newRowsCmd(app))
	cmd.AddCommand(newRelationsCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func (app *App) setup(stderr io.Writer, interactive bool) error {
	cfg, err := config.Load(app.ConfigDir)
	if err != nil {
		return err
	}
	if app.DBPath != "" {
		cfg.DBPath = app.DBPath
	}
	if app.LogLevel != "" {
		l, err := config.ParseLevel(app.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = l
	}
	app.cfg = cfg

	out := stderr
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		app.logFile = f
		out = f
	case interactive:
		out = io.Discard
	}
	app.log = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
