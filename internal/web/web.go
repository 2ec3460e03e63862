// Package web exposes the HTTP surface consumed by the dashboard and by
// external feed subscribers.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arfacturas8-ai/crm-calendar/internal/service"
)

// APIResponse is the JSON envelope of every /api reply.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Start       string `json:"start"`
	End         string `json:"end"`
	IsPersonal  bool   `json:"isPersonal"`
	AgentID     string `json:"agentId"`
}

type createEventResponse struct {
	ID             string `json:"id"`
	StoredRemotely bool   `json:"storedRemotely"`
}

// Server routes dashboard API calls to the event service and feed requests to
// the publisher.
type Server struct {
	events *service.EventService
	feed   http.Handler
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer constructs the HTTP server.
func NewServer(logger *slog.Logger, events *service.EventService, feed http.Handler) *Server {
	s := &Server{
		events: events,
		feed:   feed,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.Handle("GET /feed", s.feed)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// handleListEvents implements fetchEvents(year, month, agentId?). It never
// fails on upstream trouble; the service absorbs that into fallback tiers.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "year must be a number")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		s.writeError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}

	events := s.events.Events(r.Context(), year, time.Month(month), q.Get("agentId"))
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: events})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.events.Create(r.Context(), service.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       req.Start,
		End:         req.End,
		IsPersonal:  req.IsPersonal,
		AgentID:     req.AgentID,
	})
	if err != nil {
		// Validation failures are terminal: nothing valid to store anywhere.
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    createEventResponse{ID: res.ID, StoredRemotely: res.StoredRemotely},
	})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	ok := s.events.Delete(r.Context(), r.PathValue("id"))
	s.writeJSON(w, http.StatusOK, APIResponse{Success: ok})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
