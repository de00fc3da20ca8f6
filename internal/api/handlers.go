package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/tracker"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePostings lists postings with ?status= (default interested).
func (s *Server) handlePostings(w http.ResponseWriter, r *http.Request) {
	status := model.StatusInterested
	if q := r.URL.Query().Get("status"); q != "" {
		st, err := model.ParseStatus(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}
	postings, err := s.tracker.ByStatus(r.Context(), status)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": postings, "count": len(postings)})
}

func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracker.Get(r.Context(), keyFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDeadlines accepts the boolean flags maybe, applied and expired.
func (s *Server) handleDeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := tracker.Filter{
		Maybe:   boolParam(q.Get("maybe")),
		Applied: boolParam(q.Get("applied")),
		Expired: boolParam(q.Get("expired")),
	}
	groups, err := s.tracker.Deadlines(r.Context(), f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": groups, "count": len(groups)})
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.tracker.SetStatus(r.Context(), keyFrom(r), status)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	action, err := model.ParseApplicationAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.tracker.ApplyAction(r.Context(), keyFrom(r), action)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	items, err := s.reviewer.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	p, err := s.reviewer.AcceptAll(r.Context(), keyFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := s.reviewer.RejectAll(r.Context(), keyFrom(r)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// handleAcceptField returns the remaining pending change, or null once
// every field has been reviewed.
func (s *Server) handleAcceptField(w http.ResponseWriter, r *http.Request) {
	remaining, err := s.reviewer.AcceptField(r.Context(), keyFrom(r), chi.URLParam(r, "field"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"remaining": remaining})
}

type ingestRequest struct {
	Source string `json:"source"`
	File   string `json:"file"`
}

// handleIngest ingests a file already on local disk. An empty file loads
// the source's staged input file.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg, err := s.registry.Get(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.engine.IngestFile(r.Context(), cfg, req.File, s.inputDir)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
