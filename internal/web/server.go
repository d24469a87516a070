// Package web serves the thread engine as a JSON API with per-thread websocket change
// notifications.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"replytree/internal/logging"
	"replytree/internal/store"

	"github.com/CAFxX/httpcompression"
)

const actorHeader = "X-Replytree-Actor"

type ServerConfig struct {
	Addr     string
	Store    *store.Store
	Log      *slog.Logger
	ActorID  string
	ReadOnly bool

	// PollInterval is how often the event log is checked for writes made by other
	// processes (CLI, TUI). Defaults to one second.
	PollInterval time.Duration
}

type Server struct {
	cfg ServerConfig
	st  *store.Store
	log *slog.Logger
	bc  *threadBroadcaster
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.ActorID = strings.TrimSpace(cfg.ActorID)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Store == nil {
		return nil, errors.New("web: store is nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	log := logging.OrDiscard(cfg.Log).With("component", "web")
	return &Server{
		cfg: cfg,
		st:  cfg.Store,
		log: log,
		bc:  newThreadBroadcaster(cfg.Store, log, cfg.PollInterval),
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Watch polls the event log and fans new events out to websocket subscribers until ctx is
// done.
func (s *Server) Watch(ctx context.Context) error {
	return s.bc.watchLoop(ctx)
}

func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", s.handleHealth)
	api.HandleFunc("GET /threads", s.handleThreadList)
	api.HandleFunc("POST /threads", s.handleThreadCreate)
	api.HandleFunc("GET /threads/{threadId}", s.handleThreadGet)
	api.HandleFunc("PATCH /threads/{threadId}", s.handleThreadRename)
	api.HandleFunc("POST /threads/{threadId}/hide", s.handleThreadHidden(true))
	api.HandleFunc("POST /threads/{threadId}/restore", s.handleThreadHidden(false))
	api.HandleFunc("GET /threads/{threadId}/entries", s.handleThreadEntries)
	api.HandleFunc("POST /threads/{threadId}/entries", s.handleEntryCreate)
	api.HandleFunc("GET /threads/{threadId}/tree", s.handleThreadTree)
	api.HandleFunc("GET /threads/{threadId}/check", s.handleThreadCheck)
	api.HandleFunc("GET /threads/{threadId}/events", s.handleThreadEvents)
	api.HandleFunc("GET /threads/{threadId}/markdown", s.handleThreadMarkdown)
	api.HandleFunc("GET /entries/{entryId}", s.handleEntryGet)
	api.HandleFunc("PATCH /entries/{entryId}", s.handleEntryEdit)
	api.HandleFunc("POST /entries/{entryId}/hide", s.handleEntryHidden(true))
	api.HandleFunc("POST /entries/{entryId}/restore", s.handleEntryHidden(false))
	api.HandleFunc("POST /entries/{entryId}/move", s.handleEntryMove(false))
	api.HandleFunc("POST /entries/{entryId}/move-to", s.handleEntryMove(true))
	api.HandleFunc("POST /entries/{entryId}/check", s.handleEntryCheck)
	api.HandleFunc("GET /entries/{entryId}/drop-targets", s.handleEntryDropTargets)

	var handler http.Handler = api
	if compress, err := httpcompression.DefaultAdapter(); err == nil {
		handler = compress(api)
	} else {
		s.log.Warn("response compression disabled", "err", err)
	}

	// The websocket route bypasses compression: the upgrade needs the raw ResponseWriter.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /threads/{threadId}/ws", s.handleThreadWS)
	mux.Handle("/", handler)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// actorForRequest prefers the request header, then the server's configured actor.
func (s *Server) actorForRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(actorHeader)); v != "" {
		return v
	}
	return s.cfg.ActorID
}

// writer returns the acting actor for a mutation, or the reason the request may not write.
func (s *Server) writer(r *http.Request) (string, error) {
	if s.cfg.ReadOnly {
		return "", errReadOnly
	}
	actor := s.actorForRequest(r)
	if actor == "" {
		return "", errMissingActor
	}
	return actor, nil
}
