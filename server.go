package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/radiocfg/radio"
)

// Server handles incoming HTTP requests for inspecting and configuring the
// radio through the session
type Server struct {
	Logger  *slog.Logger
	Session *radio.Session
	// Dialer is used by POST /session to reopen a closed session.
	Dialer radio.Dialer
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("POST /config", s.handleConfig)
	mux.HandleFunc("POST /at", s.handleAT)
	mux.HandleFunc("POST /session", s.handleOpen)
	mux.HandleFunc("DELETE /session", s.handleClose)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, radio.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, radio.ErrNotIdle),
		errors.Is(err, radio.ErrSessionClosed),
		errors.Is(err, radio.ErrSessionOpen):
		return http.StatusConflict
	case errors.Is(err, radio.ErrTransportOpen),
		errors.Is(err, radio.ErrTransportIO),
		errors.Is(err, radio.ErrSendQueueFull):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type stateResponse struct {
	State   string         `json:"state"`
	Pending []string       `json:"pending"`
	Current radio.Snapshot `json:"current"`
	Desired radio.Snapshot `json:"desired"`
}

// handleState reports the session state and everything known about the radio
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	pending := s.Session.Pending().Facts()
	resp := stateResponse{
		State:   s.Session.State().String(),
		Pending: make([]string, len(pending)),
		Current: s.Session.Current(),
		Desired: s.Session.Desired(),
	}
	for i, f := range pending {
		resp.Pending[i] = f.String()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleRefresh restarts discovery
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Refresh(); err != nil {
		s.Logger.Warn("Refresh rejected", "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleConfig writes the desired settings in the request body. Fields left
// out are not changed.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var desired radio.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&desired); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Session.Save(desired); err != nil {
		s.Logger.Warn("Save rejected", "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	s.Logger.Info("Configuration save started", "pending", s.Session.Pending().String())
	w.WriteHeader(http.StatusAccepted)
}

// handleAT passes a raw command to the radio. The reply shows up in the
// transcript and, if it carries a fact, in GET /state.
func (s *Server) handleAT(w http.ResponseWriter, r *http.Request) {
	type ATRequest struct {
		Command string `json:"command"`
	}

	var req ATRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Session.SendRaw(req.Command); err != nil {
		status := statusFor(err)
		if errors.Is(err, radio.ErrValidation) {
			status = http.StatusBadRequest
		}
		s.sendError(w, err.Error(), status)
		return
	}

	s.Logger.Info("Raw command sent", "command", req.Command)
	w.WriteHeader(http.StatusAccepted)
}

// handleOpen reopens the session on the configured transport
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Open(r.Context(), s.Dialer); err != nil {
		s.Logger.Error("Failed to open session", "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleClose closes the session and releases the transport
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Close(); err != nil {
		if errors.Is(err, radio.ErrSessionClosed) {
			s.sendError(w, err.Error(), http.StatusConflict)
			return
		}
		// The session is closed even when the transport reports an error.
		s.Logger.Warn("Transport close failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
