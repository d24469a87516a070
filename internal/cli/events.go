package cli

import (
	"replytree/internal/store"

	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the audit log of committed mutations",
	}

	var f store.EventFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events (oldest-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			evs, err := s.ListEvents(commandContext(cmd), f)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	listCmd.Flags().StringVar(&f.ThreadID, "thread", "", "Only events of this thread")
	listCmd.Flags().StringVar(&f.EntityID, "entity", "", "Only events of this thread or entry id")
	listCmd.Flags().Int64Var(&f.AfterSeq, "after", 0, "Only events after this sequence number")
	listCmd.Flags().IntVar(&f.Limit, "limit", 200, "Max events to return (0 = all)")

	cmd.AddCommand(listCmd)
	return cmd
}
