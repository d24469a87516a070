package cli

import (
	"errors"
	"strings"

	"replytree/internal/store"

	"github.com/spf13/cobra"
)

func newThreadsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "threads",
		Aliases: []string{"thread"},
		Short:   "Create and manage threads",
	}
	cmd.AddCommand(newThreadsCreateCmd(app))
	cmd.AddCommand(newThreadsListCmd(app))
	cmd.AddCommand(newThreadsShowCmd(app))
	cmd.AddCommand(newThreadsRenameCmd(app))
	cmd.AddCommand(newThreadsHiddenCmd(app, "hide", true))
	cmd.AddCommand(newThreadsHiddenCmd(app, "restore", false))
	cmd.AddCommand(newThreadsUseCmd(app))
	cmd.AddCommand(newThreadsCheckCmd(app))
	cmd.AddCommand(newThreadsRenumberCmd(app))
	cmd.AddCommand(newThreadsExportCmd(app))
	return cmd
}

func newThreadsCreateCmd(app *App) *cobra.Command {
	var title string
	var use bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, err := currentActorID(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			th, err := s.CreateThread(commandContext(cmd), actorID, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			if use {
				if err := saveCurrentThread(app, th.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": th})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Thread title")
	cmd.Flags().BoolVar(&use, "use", false, "Make this the current thread")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newThreadsListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List threads (oldest first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			ths, err := s.ListThreads(commandContext(cmd), all)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ths})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden threads")
	return cmd
}

func newThreadsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [thread-id]",
		Short: "Show a thread (default: current thread)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveThread(app, firstArg(args))
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			th, err := s.GetThread(commandContext(cmd), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": th})
		},
	}
}

func newThreadsRenameCmd(app *App) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "rename <thread-id>",
		Short: "Rename a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, err := currentActorID(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			th, err := s.RenameThread(commandContext(cmd), actorID, args[0], title)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": th})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newThreadsHiddenCmd(app *App, use string, hidden bool) *cobra.Command {
	short := "Restore a hidden thread"
	if hidden {
		short = "Hide a thread from default listings"
	}
	return &cobra.Command{
		Use:   use + " <thread-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, err := currentActorID(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			th, err := s.SetThreadHidden(commandContext(cmd), actorID, args[0], hidden)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": th})
		},
	}
}

func newThreadsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <thread-id>",
		Short: "Set the current thread used when --thread is omitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			th, err := s.GetThread(commandContext(cmd), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := saveCurrentThread(app, th.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": th})
		},
	}
}

func newThreadsCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check [thread-id]",
		Short: "Report cycles, depth violations, orphans and order problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveThread(app, firstArg(args))
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			rep, err := s.CheckThread(commandContext(cmd), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := writeOut(cmd, app, map[string]any{"data": rep}); err != nil {
				return err
			}
			if rep.HasErrors() {
				return errors.New("thread has integrity errors")
			}
			return nil
		},
	}
}

func newThreadsRenumberCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "renumber [thread-id]",
		Short: "Reassign evenly spaced order indexes to every sibling group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, err := currentActorID(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := resolveThread(app, firstArg(args))
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			changed, err := s.RenumberThread(commandContext(cmd), actorID, id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"threadId": id, "renumbered": changed}})
		},
	}
}

func saveCurrentThread(app *App, threadID string) error {
	cfg := app.config()
	cfg.CurrentThread = threadID
	return store.SaveConfig(cfg)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
