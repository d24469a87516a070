package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"replytree/internal/model"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		// Same-origin only.
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

// wsMsg is one server-to-client frame. "hello" carries the thread version at subscribe time;
// "event" carries one committed mutation so the client can refetch.
type wsMsg struct {
	Type     string       `json:"type"`
	ThreadID string       `json:"threadId"`
	Version  int64        `json:"version,omitempty"`
	Event    *model.Event `json:"event,omitempty"`
}

func (s *Server) handleThreadWS(w http.ResponseWriter, r *http.Request) {
	// Subscribe before reading the version: any event committed after the read is already
	// queued for this client.
	ch, unsubscribe := s.bc.subscribe(r.PathValue("threadId"))
	defer unsubscribe()

	th, err := s.st.GetThread(r.Context(), r.PathValue("threadId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the close; clients do not send anything meaningful.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeWS(conn, wsMsg{Type: "hello", ThreadID: th.ID, Version: th.Version}); err != nil {
		return
	}
	s.bc.nudge()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeWS(conn, wsMsg{Type: "event", ThreadID: th.ID, Event: &ev}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, m wsMsg) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(m)
}
