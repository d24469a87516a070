package cli

import (
	"fmt"

	"replytree/internal/publish"

	"github.com/spf13/cobra"
)

func newThreadsExportCmd(app *App) *cobra.Command {
	var (
		to            string
		includeHidden bool
		overwrite     bool
	)
	cmd := &cobra.Command{
		Use:   "export [thread-id]",
		Short: "Export a thread as Markdown (to stdout, or to <dir>/threads/<id>.md with --to)",
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
			ctx := commandContext(cmd)

			if to == "" {
				md, err := publish.ThreadMarkdown(ctx, s, id, publish.RenderOptions{IncludeHidden: includeHidden})
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			res, err := publish.WriteThread(ctx, s, id, to, publish.WriteOptions{IncludeHidden: includeHidden, Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output directory (default: print to stdout)")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Print the bodies of hidden entries")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing export")
	return cmd
}
