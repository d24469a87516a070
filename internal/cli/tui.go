package cli

import (
	"os"
	"path/filepath"

	"replytree/internal/logging"
	"replytree/internal/tui"

	"github.com/spf13/cobra"
)

const tuiLogFile = "tui.log"

func newTUICmd(app *App) *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive thread browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app, threadID)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Open this thread directly (default: current thread)")
	return cmd
}

func runTUI(cmd *cobra.Command, app *App, threadID string) error {
	dir, err := resolveDir(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	// The terminal belongs to the TUI, so logs go to a file in the store dir.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return writeErr(cmd, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, tuiLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer f.Close()
	log, err := logging.New(f, app.logLevel(), logging.FormatText)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log = log

	s, err := openStore(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	if threadID == "" {
		threadID = app.config().CurrentThread
	}
	// Browsing works without an actor; writes from the TUI report the missing actor.
	actorID, _ := currentActorID(app)
	return tui.Run(commandContext(cmd), s, tui.Options{
		ThreadID: threadID,
		ActorID:  actorID,
		Glyphs:   app.config().TUI.Glyphs,
		Log:      log,
	})
}
