// Package server exposes the inbound report webhook over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"report_bot/internal/model"
)

// Broadcaster applies a report action across all subscriptions.
type Broadcaster interface {
	Broadcast(ctx context.Context, action model.Action, report model.Report) error
}

// Server handles webhook pushes from the report service.
type Server struct {
	router *mux.Router
	b      Broadcaster
	log    *slog.Logger
}

// New creates a Server dispatching to the given broadcaster.
func New(b Broadcaster, log *slog.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		b:      b,
		log:    log,
	}
	s.router.HandleFunc("/subscription/global", s.handleGlobal).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	return s
}

// Router returns the HTTP handler for the server.
func (s *Server) Router() http.Handler {
	return s.router
}

type globalPayload struct {
	Action string          `json:"action"`
	Report json.RawMessage `json:"report"`
}

func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	var payload globalPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action := model.Action(payload.Action)
	if !action.Valid() {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid action %q", payload.Action))
		return
	}

	report, err := decodeReport(payload.Report)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid report payload")
		return
	}

	s.log.Info("report webhook", "action", action, "report_id", report.ID)

	if err := s.b.Broadcast(r.Context(), action, report); err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeReport accepts the report either as an inline JSON object or as
// a JSON string holding the encoded object (the report service
// double-encodes on some paths).
func decodeReport(raw json.RawMessage) (model.Report, error) {
	var report model.Report
	if len(raw) == 0 {
		return report, fmt.Errorf("missing report")
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return report, fmt.Errorf("unwrap report string: %w", err)
		}
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		return report, fmt.Errorf("parse report: %w", err)
	}
	return report, nil
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
