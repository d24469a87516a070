package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"replytree/internal/model"
	"replytree/internal/publish"
	"replytree/internal/store"
	"replytree/internal/tree"
)

const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequestError{msg: "empty request body"}
		}
		return badRequestError{msg: "invalid json: " + err.Error()}
	}
	return nil
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return v
}

func (s *Server) handleThreadList(w http.ResponseWriter, r *http.Request) {
	ths, err := s.st.ListThreads(r.Context(), queryBool(r, "all"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ths})
}

type threadRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleThreadCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := s.writer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req threadRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	th, err := s.st.CreateThread(r.Context(), actor, req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.bc.nudge()
	writeJSON(w, http.StatusCreated, map[string]any{"data": th})
}

func (s *Server) handleThreadGet(w http.ResponseWriter, r *http.Request) {
	th, err := s.st.GetThread(r.Context(), r.PathValue("threadId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": th})
}

func (s *Server) handleThreadRename(w http.ResponseWriter, r *http.Request) {
	actor, err := s.writer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req threadRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	th, err := s.st.RenameThread(r.Context(), actor, r.PathValue("threadId"), req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.bc.nudge()
	writeJSON(w, http.StatusOK, map[string]any{"data": th})
}

func (s *Server) handleThreadHidden(hidden bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.writer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		th, err := s.st.SetThreadHidden(r.Context(), actor, r.PathValue("threadId"), hidden)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.bc.nudge()
		writeJSON(w, http.StatusOK, map[string]any{"data": th})
	}
}

// threadEntries loads the thread (for its version) and every entry, hidden included.
func (s *Server) threadEntries(r *http.Request) (model.Thread, []model.Entry, error) {
	th, err := s.st.GetThread(r.Context(), r.PathValue("threadId"))
	if err != nil {
		return model.Thread{}, nil, err
	}
	entries, err := s.st.ListEntries(r.Context(), th.ID)
	if err != nil {
		return model.Thread{}, nil, err
	}
	return th, entries, nil
}

func (s *Server) handleThreadEntries(w http.ResponseWriter, r *http.Request) {
	th, entries, err := s.threadEntries(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := tree.Linearize(entries)
	if queryBool(r, "visible") {
		vis := out[:0]
		for _, e := range out {
			if !e.Hidden {
				vis = append(vis, e)
			}
		}
		out = vis
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "meta": map[string]any{"version": th.Version}})
}

type treeRow struct {
	tree.Row
	BodyHTML string `json:"bodyHtml,omitempty"`
}

func (s *Server) handleThreadTree(w http.ResponseWriter, r *http.Request) {
	th, entries, err := s.threadEntries(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	x := tree.Build(entries)
	if cyc := x.CyclicIDs(); len(cyc) > 0 {
		s.log.Warn("thread has cyclic entries", "thread", th.ID, "entries", cyc)
	}
	html := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("render")), "html")
	rows := x.Rows()
	out := make([]treeRow, 0, len(rows))
	for _, row := range rows {
		tr := treeRow{Row: row}
		if html && !row.Entry.Hidden {
			tr.BodyHTML = renderMarkdownHTML(row.Entry.Body)
		}
		out = append(out, tr)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": map[string]any{"version": th.Version, "maxDepth": tree.MaxDepth, "cyclic": x.CyclicIDs()},
	})
}

func (s *Server) handleThreadCheck(w http.ResponseWriter, r *http.Request) {
	rep, err := s.st.CheckThread(r.Context(), r.PathValue("threadId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rep})
}

func (s *Server) handleThreadMarkdown(w http.ResponseWriter, r *http.Request) {
	opt := publish.RenderOptions{IncludeHidden: queryBool(r, "includeHidden")}
	md, err := publish.ThreadMarkdown(r.Context(), s.st, r.PathValue("threadId"), opt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, md)
}

func (s *Server) handleThreadEvents(w http.ResponseWriter, r *http.Request) {
	f := store.EventFilter{ThreadID: r.PathValue("threadId"), Limit: 200}
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("after")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, r, badRequestError{msg: "invalid after: " + v})
			return
		}
		f.AfterSeq = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, badRequestError{msg: "invalid limit: " + v})
			return
		}
		f.Limit = n
	}
	evs, err := s.st.ListEvents(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": evs})
}

type entryCreateRequest struct {
	ParentEntryID string `json:"parentEntryId"`
	Body          string `json:"body"`
}

func (s *Server) handleEntryCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := s.writer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req entryCreateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.st.AddEntry(r.Context(), actor, r.PathValue("threadId"), req.ParentEntryID, req.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.bc.nudge()
	writeJSON(w, http.StatusCreated, map[string]any{"data": e})
}

func (s *Server) handleEntryGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.st.GetEntry(r.Context(), r.PathValue("entryId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := map[string]any{"data": e}
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("render")), "html") {
		out["meta"] = map[string]any{"bodyHtml": renderMarkdownHTML(e.Body)}
	}
	writeJSON(w, http.StatusOK, out)
}

type entryEditRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleEntryEdit(w http.ResponseWriter, r *http.Request) {
	actor, err := s.writer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req entryEditRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.st.EditEntry(r.Context(), actor, r.PathValue("entryId"), req.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.bc.nudge()
	writeJSON(w, http.StatusOK, map[string]any{"data": e})
}

func (s *Server) handleEntryHidden(hidden bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.writer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		e, err := s.st.SetEntryHidden(r.Context(), actor, r.PathValue("entryId"), hidden)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.bc.nudge()
		writeJSON(w, http.StatusOK, map[string]any{"data": e})
	}
}

// decodeProposal reads a move proposal and checks it has the shape the route expects.
func decodeProposal(r *http.Request, targeted bool) (tree.Proposal, error) {
	var p tree.Proposal
	if err := decodeBody(r, &p); err != nil {
		return tree.Proposal{}, err
	}
	switch {
	case targeted && p.Direction != "":
		return tree.Proposal{}, badRequestError{msg: "move-to takes targetEntryId and position, not direction"}
	case !targeted && (p.TargetID != "" || p.Position != ""):
		return tree.Proposal{}, badRequestError{msg: "move takes a direction (up|down), not a target"}
	}
	return p, nil
}

func (s *Server) handleEntryMove(targeted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.writer(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		p, err := decodeProposal(r, targeted)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := s.st.MoveEntry(r.Context(), actor, r.PathValue("entryId"), p)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !res.Placement.Unchanged {
			s.bc.nudge()
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": res})
	}
}

// handleEntryCheck is a dry run: refusals are reported in the body with 200.
func (s *Server) handleEntryCheck(w http.ResponseWriter, r *http.Request) {
	var p tree.Proposal
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.st.CheckMove(r.Context(), r.PathValue("entryId"), p)
	out := map[string]any{"legal": err == nil, "proposal": p}
	switch {
	case err == nil:
		out["result"] = res
	case tree.IsRefusal(err) || errors.Is(err, tree.ErrNotFound) || errors.Is(err, tree.ErrCycleDetected):
		_, e := classify(err)
		out["reason"] = e
	default:
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleEntryDropTargets(w http.ResponseWriter, r *http.Request) {
	e, err := s.st.GetEntry(r.Context(), r.PathValue("entryId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.st.ListEntries(r.Context(), e.ThreadID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": tree.Build(entries).DropTargets(e.ID)})
}
