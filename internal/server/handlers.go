package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/sqlbatch/internal/explorer"
	"github.com/leapstack-labs/sqlbatch/pkg/core"
	"github.com/leapstack-labs/sqlbatch/pkg/dialect"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ExecuteRequest is the body of POST /api/execute. Unset options fall back
// to the server defaults.
type ExecuteRequest struct {
	Script         string `json:"script"`
	RequestID      string `json:"requestId,omitempty"`
	RestrictUpdate *bool  `json:"restrictUpdate,omitempty"`
	TrimResult     *bool  `json:"trimResult,omitempty"`
	PreviewLimit   *int   `json:"previewLimit,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", "INVALID_JSON")
		return
	}
	if strings.TrimSpace(req.Script) == "" {
		writeError(w, http.StatusBadRequest, "script is required", "SCRIPT_REQUIRED")
		return
	}

	opts := s.cfg.Defaults
	opts.RequestID = req.RequestID
	if opts.RequestID == "" {
		opts.RequestID = middleware.GetReqID(r.Context())
	}
	if req.RestrictUpdate != nil {
		opts.RestrictUpdate = *req.RestrictUpdate
	}
	if req.TrimResult != nil {
		opts.TrimResult = *req.TrimResult
	}
	if req.PreviewLimit != nil {
		opts.PreviewLimit = *req.PreviewLimit
	}

	envs, err := s.cfg.Runner.Execute(r.Context(), req.Script, opts)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.Record(r.Context(), envs); err != nil {
			s.logger.Warn("failed to record history", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, envs)
}

func (s *Server) handleDialects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dialects": dialect.List()})
}

func (s *Server) handleDatabases(w http.ResponseWriter, r *http.Request) {
	if !s.requireExplorer(w) {
		return
	}
	dbs, err := s.cfg.Explorer.Databases(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dbs)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if !s.requireExplorer(w) {
		return
	}
	q := r.URL.Query()
	var (
		tables []explorer.Table
		err    error
	)
	if q.Get("kind") == "view" {
		tables, err = s.cfg.Explorer.Views(r.Context(), q.Get("database"), q.Get("schema"))
	} else {
		tables, err = s.cfg.Explorer.Tables(r.Context(), q.Get("database"), q.Get("schema"))
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	if !s.requireExplorer(w) {
		return
	}
	q := r.URL.Query()
	if q.Get("table") == "" {
		writeError(w, http.StatusBadRequest, "table is required", "TABLE_REQUIRED")
		return
	}
	cols, err := s.cfg.Explorer.Columns(r.Context(), q.Get("database"), q.Get("schema"), q.Get("table"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireExplorer(w) {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	if q.Get("kind") == "columns" {
		var tables []string
		if t := q.Get("tables"); t != "" {
			tables = strings.Split(t, ",")
		}
		cols, err := s.cfg.Explorer.SearchColumns(r.Context(), q.Get("q"), tables, limit)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cols)
		return
	}

	tables, err := s.cfg.Explorer.SearchTables(r.Context(), q.Get("q"), limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) requireExplorer(w http.ResponseWriter) bool {
	if s.cfg.Explorer == nil {
		writeError(w, http.StatusNotImplemented, "Explorer not configured", "EXPLORER_DISABLED")
		return false
	}
	return true
}

// writeFailure maps connection failures to 502 and everything else to 500.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var connErr *core.ConnectionError
	switch {
	case errors.As(err, &connErr):
		s.logger.Error("connection failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error(), "CONNECTION_FAILED")
	case explorer.IsQueryError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "QUERY_FAILED")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL")
	}
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
