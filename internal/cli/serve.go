package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"replytree/internal/web"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultServeAddr = "127.0.0.1:3335"

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var readOnly bool
	var poll time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API with websocket change notifications",
		Example: strings.TrimSpace(`
# Serve the store in ./.replytree on localhost
replytree serve --actor act-me

# Read-only, on every interface
replytree serve --addr :3335 --read-only
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = strings.TrimSpace(app.config().Serve.Addr)
			}
			if listenAddr == "" {
				listenAddr = defaultServeAddr
			}
			// Writes without X-Replytree-Actor fall back to this actor, when there is one.
			actorID, _ := currentActorID(app)

			s, err := openStore(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			srv, err := web.NewServer(web.ServerConfig{
				Addr:         listenAddr,
				Store:        s,
				Log:          app.logger(),
				ActorID:      actorID,
				ReadOnly:     readOnly,
				PollInterval: poll,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"dir":       s.Dir,
					"readOnly":  readOnly,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "replytree serving %s (dir=%s)\n", url, s.Dir)

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, srv, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default: config serve.addr, else "+defaultServeAddr+")")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject every write")
	cmd.Flags().DurationVar(&poll, "poll", time.Second, "How often to check for writes from other processes")
	return cmd
}

// runServer serves HTTP and the change watcher until ctx is done or either fails, then
// shuts the HTTP server down gracefully.
func runServer(ctx context.Context, srv *web.Server, ln net.Listener) error {
	hs := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
