package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"replytree/internal/format"
	"replytree/internal/logging"
	"replytree/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	ActorID    string
	PrettyJSON bool
	Format     string
	LogLevel   string

	log *slog.Logger
	cfg *store.GlobalConfig
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "replytree",
		Short:        "Threaded discussions with movable replies (CLI + TUI + JSON API)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  replytree

  # Scriptable commands
  replytree threads create --title "Design review" --use
  replytree entries add --body "First point"
  replytree entries tree

  # Direct entry lookup (shortcut for: replytree entries show <entry-id>)
  replytree ent-3k2a9q1m
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app, "")
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		log, err := logging.New(cmd.ErrOrStderr(), app.logLevel(), logging.FormatText)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log = log
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("REPLYTREE_DIR", ""), "Path to store dir (default: nearest .replytree, else ./.replytree)")
	cmd.PersistentFlags().StringVar(&app.ActorID, "actor", envOr("REPLYTREE_ACTOR", ""), "Actor id recorded on writes (overrides config actor)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("REPLYTREE_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("REPLYTREE_LOG_LEVEL", ""), "Log level on stderr (debug|info|warn|error)")

	cmd.AddCommand(newThreadsCmd(app))
	cmd.AddCommand(newEntriesCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// resolveDir picks --dir, else the nearest .replytree, else ./.replytree.
func resolveDir(app *App) (string, error) {
	dir := strings.TrimSpace(app.Dir)
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return "", err
		}
		dir = d
		app.Dir = dir
	}
	return dir, nil
}

// openStore opens the store for one command. Callers close it.
func openStore(cmd *cobra.Command, app *App) (*store.Store, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	return store.Open(commandContext(cmd), dir, app.logger())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (app *App) logger() *slog.Logger {
	return logging.OrDiscard(app.log)
}

// logLevel is --log-level, else the config file's logLevel.
func (app *App) logLevel() string {
	if v := strings.TrimSpace(app.LogLevel); v != "" {
		return v
	}
	return strings.TrimSpace(app.config().LogLevel)
}

func (app *App) config() *store.GlobalConfig {
	if app.cfg == nil {
		app.cfg = &store.GlobalConfig{}
	}
	return app.cfg
}

func currentActorID(app *App) (string, error) {
	if v := strings.TrimSpace(app.ActorID); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(app.config().Actor); v != "" {
		return v, nil
	}
	return "", errors.New("no current actor; pass --actor or run `replytree config set actor <id>`")
}

// resolveThread picks the explicit thread id, else the configured current thread.
func resolveThread(app *App, explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(app.config().CurrentThread); v != "" {
		return v, nil
	}
	return "", errors.New("no thread selected; pass --thread or run `replytree threads use <thread-id>`")
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
