package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

// StateView is the JSON form of a snapshot. The state is spelled out
// because Snapshot keeps it numeric.
type StateView struct {
	State string `json:"state"`
	session.Snapshot
}

func viewOf(snap session.Snapshot) StateView {
	return StateView{State: snap.State.String(), Snapshot: snap}
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler returns the bridge's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /log", s.handleLog)
	mux.HandleFunc("POST /actions/{name}", s.handleAction)
	mux.HandleFunc("GET /ws", s.hub.serveWS)
	return mux
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, viewOf(s.ctl.Snapshot()))
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "since must be a non-negative integer"})
			return
		}
		since = n
	}

	entries := s.ctl.LogSince(since)
	if entries == nil {
		entries = []session.LogEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action, err := session.ParseAction(r.PathValue("name"))
	if err != nil {
		writeJSON(w, r, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}

	if err := s.ctl.Do(action); err != nil {
		writeJSON(w, r, actionStatus(err), errorBody{Error: err.Error()})
		return
	}

	logging.Info("Action accepted",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("action", string(action)),
	)
	writeJSON(w, r, http.StatusAccepted, viewOf(s.ctl.Snapshot()))
}

// actionStatus maps a rejected action to an HTTP status
func actionStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrActionNotAllowed):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, status)
}
