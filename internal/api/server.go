// Package api exposes the router and the conversation driver over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/odalmau/webmcp/internal/chat"
	"github.com/odalmau/webmcp/internal/chat/model"
	"github.com/odalmau/webmcp/internal/rpc"
)

// Titler names conversations. Optional; the assistant implements it.
type Titler interface {
	Title(ctx context.Context, conv *model.Conversation) (string, error)
}

// Server holds the in-memory conversation set. Conversations live for the
// process lifetime only.
type Server struct {
	router *rpc.Router
	driver *chat.Driver
	titler Titler

	mu    sync.Mutex
	convs map[string]*conversationState
}

// Each conversation is single-flight: one turn at a time.
type conversationState struct {
	mu   sync.Mutex
	conv *model.Conversation
}

func NewServer(router *rpc.Router, driver *chat.Driver, titler Titler) *Server {
	return &Server{
		router: router,
		driver: driver,
		titler: titler,
		convs:  map[string]*conversationState{},
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r *mux.Router) {
	r.HandleFunc("/rpc", s.handleRPC).Methods(http.MethodPost)
	r.HandleFunc("/chat/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/chat/send", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/chat/{id}", s.handleDescribe).Methods(http.MethodGet)
}

// handleRPC accepts a raw envelope and returns its response. Protocol
// failures travel inside the response body, so the HTTP status is 200 for
// anything that parsed.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.router.Send(r.Context(), &req))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	state := &conversationState{conv: model.NewConversation()}
	state.mu.Lock()
	defer state.mu.Unlock()

	s.mu.Lock()
	s.convs[state.conv.ID] = state
	s.mu.Unlock()

	if s.titler != nil {
		title, err := s.titler.Title(r.Context(), &model.Conversation{
			ID:       state.conv.ID,
			Messages: []*model.Message{{Role: model.RoleUser, Content: req.Message}},
		})
		if err != nil {
			slog.WarnContext(r.Context(), "Title generation failed", "conversation_id", state.conv.ID, "error", err)
			title = "New conversation"
		}
		state.conv.Title = title
	}

	reply, err := s.driver.Turn(r.Context(), state.conv, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": state.conv.ID,
		"title":           state.conv.Title,
		"reply":           reply,
	})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	state, ok := s.lookup(req.ConversationID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown conversation "+req.ConversationID)
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	reply, err := s.driver.Turn(r.Context(), state.conv, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": state.conv.ID,
		"reply":           reply,
	})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	state, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown conversation "+id)
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	writeJSON(w, http.StatusOK, state.conv)
}

func (s *Server) lookup(id string) (*conversationState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.convs[id]
	return state, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Error("Writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
