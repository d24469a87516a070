package cli

import (
	"fmt"
	"strings"

	"replytree/internal/model"
	"replytree/internal/tree"

	"github.com/spf13/cobra"
)

func newEntriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry"},
		Short:   "Add, edit and arrange entries in a thread",
	}
	cmd.AddCommand(newEntriesAddCmd(app))
	cmd.AddCommand(newEntriesListCmd(app))
	cmd.AddCommand(newEntriesShowCmd(app))
	cmd.AddCommand(newEntriesEditCmd(app))
	cmd.AddCommand(newEntriesHiddenCmd(app, "hide", true))
	cmd.AddCommand(newEntriesHiddenCmd(app, "restore", false))
	cmd.AddCommand(newEntriesTreeCmd(app))
	cmd.AddCommand(newEntriesDepthsCmd(app))
	cmd.AddCommand(newEntriesMoveCmd(app))
	cmd.AddCommand(newEntriesMoveToCmd(app))
	cmd.AddCommand(newEntriesCheckCmd(app))
	cmd.AddCommand(newEntriesDropTargetsCmd(app))
	return cmd
}

func newEntriesAddCmd(app *App) *cobra.Command {
	var threadID, parentID, body string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry (a new root, or a reply with --parent)",
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
			ctx := commandContext(cmd)

			// A reply's thread is its parent's thread.
			if strings.TrimSpace(threadID) == "" && strings.TrimSpace(parentID) != "" {
				p, err := s.GetEntry(ctx, parentID)
				if err != nil {
					return writeErr(cmd, err)
				}
				threadID = p.ThreadID
			}
			tid, err := resolveThread(app, threadID)
			if err != nil {
				return writeErr(cmd, err)
			}
			e, err := s.AddEntry(ctx, actorID, tid, parentID, body)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": e})
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Thread id (default: current thread, or the parent's thread)")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent entry id (omit for a root entry)")
	cmd.Flags().StringVar(&body, "body", "", "Entry body (markdown)")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newEntriesListCmd(app *App) *cobra.Command {
	var threadID string
	var visible bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a thread's entries in render order",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadThreadEntries(cmd, app, threadID)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := tree.Linearize(entries)
			if visible {
				out = visibleEntries(out)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Thread id (default: current thread)")
	cmd.Flags().BoolVar(&visible, "visible", false, "Skip hidden entries")
	return cmd
}

func newEntriesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show an entry with its depth and replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			ctx := commandContext(cmd)

			e, err := s.GetEntry(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			entries, err := s.ListEntries(ctx, e.ThreadID)
			if err != nil {
				return writeErr(cmd, err)
			}
			x := tree.Build(entries)
			meta := map[string]any{"replies": x.Children(e.ID)}
			if d, err := x.DepthOf(e.ID); err == nil {
				meta["depth"] = d
			} else {
				meta["depthError"] = err.Error()
			}
			return writeOut(cmd, app, map[string]any{"data": e, "meta": meta})
		},
	}
}

func newEntriesEditCmd(app *App) *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Replace an entry's body",
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

			e, err := s.EditEntry(commandContext(cmd), actorID, args[0], body)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": e})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "New body")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newEntriesHiddenCmd(app *App, use string, hidden bool) *cobra.Command {
	short := "Restore a hidden entry"
	if hidden {
		short = "Hide an entry (its replies stay in place)"
	}
	return &cobra.Command{
		Use:   use + " <entry-id>",
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

			e, err := s.SetEntryHidden(commandContext(cmd), actorID, args[0], hidden)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": e})
		},
	}
}

func newEntriesTreeCmd(app *App) *cobra.Command {
	var threadID string
	var plain bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the thread as indented rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadThreadEntries(cmd, app, threadID)
			if err != nil {
				return writeErr(cmd, err)
			}
			x := tree.Build(entries)
			rows := x.Rows()
			if plain {
				w := cmd.OutOrStdout()
				for _, r := range rows {
					fmt.Fprintln(w, plainRow(r))
				}
				return nil
			}
			return writeOut(cmd, app, map[string]any{
				"data": rows,
				"meta": map[string]any{"maxDepth": tree.MaxDepth, "cyclic": x.CyclicIDs()},
			})
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Thread id (default: current thread)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print an indented text outline instead of JSON")
	return cmd
}

func plainRow(r tree.Row) string {
	body := firstLine(r.Entry.Body)
	if r.Entry.Hidden {
		body = "[hidden]"
	}
	mark := ""
	if r.Cyclic {
		mark = " (cycle)"
	}
	return fmt.Sprintf("%s- %s  %s%s", strings.Repeat("  ", r.Depth-1), r.Entry.ID, body, mark)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newEntriesDepthsCmd(app *App) *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "depths",
		Short: "Map every entry id to its depth (roots are 1)",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadThreadEntries(cmd, app, threadID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": tree.DepthMap(entries)})
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Thread id (default: current thread)")
	return cmd
}

func loadThreadEntries(cmd *cobra.Command, app *App, threadID string) ([]model.Entry, error) {
	tid, err := resolveThread(app, threadID)
	if err != nil {
		return nil, err
	}
	s, err := openStore(cmd, app)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ListEntries(commandContext(cmd), tid)
}

func visibleEntries(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Hidden {
			out = append(out, e)
		}
	}
	return out
}
