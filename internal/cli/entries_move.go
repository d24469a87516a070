package cli

import (
	"errors"
	"strings"

	"replytree/internal/tree"

	"github.com/spf13/cobra"
)

type moveFlags struct {
	up, down             bool
	before, after, child string
}

func (f *moveFlags) addDirectional(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.up, "up", false, "Move one visible step up")
	cmd.Flags().BoolVar(&f.down, "down", false, "Move one visible step down")
}

func (f *moveFlags) addTargeted(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.before, "before", "", "Drop directly before this entry")
	cmd.Flags().StringVar(&f.after, "after", "", "Drop directly after this entry")
	cmd.Flags().StringVar(&f.child, "child", "", "Drop as the last reply of this entry")
}

// proposal turns exactly one set flag into a move proposal.
func (f moveFlags) proposal() (tree.Proposal, error) {
	var out []tree.Proposal
	if f.up {
		out = append(out, tree.Move(tree.Up))
	}
	if f.down {
		out = append(out, tree.Move(tree.Down))
	}
	if v := strings.TrimSpace(f.before); v != "" {
		out = append(out, tree.MoveTo(v, tree.Before))
	}
	if v := strings.TrimSpace(f.after); v != "" {
		out = append(out, tree.MoveTo(v, tree.After))
	}
	if v := strings.TrimSpace(f.child); v != "" {
		out = append(out, tree.MoveTo(v, tree.Child))
	}
	if len(out) != 1 {
		return tree.Proposal{}, errors.New("provide exactly one move flag")
	}
	return out[0], nil
}

func newEntriesMoveCmd(app *App) *cobra.Command {
	var f moveFlags
	cmd := &cobra.Command{
		Use:   "move <entry-id>",
		Short: "Move an entry one step up or down (entries with replies cannot use this)",
		Long: strings.TrimSpace(`
Move a leaf entry one visible step.

Within its sibling band the entry swaps with the nearest visible sibling. At the edge of the
band it steps out next to its parent. A root entry swaps with the adjacent root, or joins that
root's replies when it has any.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, app, args[0], f)
		},
	}
	f.addDirectional(cmd)
	return cmd
}

func newEntriesMoveToCmd(app *App) *cobra.Command {
	var f moveFlags
	cmd := &cobra.Command{
		Use:   "move-to <entry-id>",
		Short: "Move an entry (with its replies) before, after or under another entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, app, args[0], f)
		},
	}
	f.addTargeted(cmd)
	return cmd
}

func runMove(cmd *cobra.Command, app *App, entryID string, f moveFlags) error {
	p, err := f.proposal()
	if err != nil {
		return writeErr(cmd, err)
	}
	actorID, err := currentActorID(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	s, err := openStore(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	res, err := s.MoveEntry(commandContext(cmd), actorID, entryID, p)
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{"data": res})
}

func newEntriesCheckCmd(app *App) *cobra.Command {
	var f moveFlags
	cmd := &cobra.Command{
		Use:   "check <entry-id>",
		Short: "Dry-run a move: report whether it is legal and where the entry would land",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.proposal()
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			res, err := s.CheckMove(commandContext(cmd), args[0], p)
			out := map[string]any{"legal": err == nil, "proposal": p}
			switch {
			case err == nil:
				out["result"] = res
			case tree.IsRefusal(err) || errors.Is(err, tree.ErrNotFound) || errors.Is(err, tree.ErrCycleDetected):
				out["reason"] = err.Error()
			default:
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	f.addDirectional(cmd)
	f.addTargeted(cmd)
	return cmd
}

func newEntriesDropTargetsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "drop-targets <entry-id>",
		Short: "List every visible entry the given entry may be dropped on, with the legal positions",
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
			out := tree.Build(entries).DropTargets(e.ID)
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}
