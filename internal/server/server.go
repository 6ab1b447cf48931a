// Package server exposes the channel guard operations over a JSON HTTP API:
// session management, topology persistence, command preview, deploy, verify,
// and rollback.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/channel-guard/channelguard/pkg/session"
	"github.com/channel-guard/channelguard/pkg/store"
	"github.com/channel-guard/channelguard/pkg/util"
)

// Server wires the session controller and topology store behind HTTP.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	ctrl       *session.Controller
	store      *store.Store
}

// New creates a server listening on addr.
func New(addr string, ctrl *session.Controller, st *store.Store) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second, // deploys block for the device round trip
			IdleTimeout:  60 * time.Second,
		},
		mux:   mux,
		ctrl:  ctrl,
		store: st,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/connect", s.handleConnect)
	s.mux.HandleFunc("POST /api/disconnect", s.handleDisconnect)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.HandleFunc("GET /api/topology", s.handleGetTopology)
	s.mux.HandleFunc("POST /api/topology", s.handleSaveTopology)
	s.mux.HandleFunc("GET /api/topology/list", s.handleListTopologies)
	s.mux.HandleFunc("POST /api/topology/save-as", s.handleSaveTopologyAs)
	s.mux.HandleFunc("POST /api/topology/load", s.handleLoadTopology)
	s.mux.HandleFunc("POST /api/topology/delete", s.handleDeleteTopology)
	s.mux.HandleFunc("POST /api/topology/import", s.handleImportTopology)
	s.mux.HandleFunc("GET /api/topology/export", s.handleExportTopology)

	s.mux.HandleFunc("GET /api/preview", s.handlePreview)
	s.mux.HandleFunc("POST /api/deploy", s.handleDeploy)
	s.mux.HandleFunc("POST /api/verify", s.handleVerify)
	s.mux.HandleFunc("POST /api/rollback", s.handleRollback)
}

// Handler returns the route multiplexer, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	util.Infof("HTTP API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	util.Info("Shutting down HTTP API")
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Validation errors
// carry the full message list.
func writeError(w http.ResponseWriter, err error) {
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Validation failed",
			"details": verr.Errors,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, util.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, util.ErrNotConnected),
		errors.Is(err, util.ErrAuthFailed),
		errors.Is(err, util.ErrConnectTimeout):
		status = http.StatusBadRequest
	case errors.Is(err, util.ErrConnectionLost):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
