package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/comigor/atelier-go/internal/api"
	"github.com/comigor/atelier-go/internal/chat"
	"github.com/comigor/atelier-go/internal/logger"
)

// Server exposes the session store and image generator over HTTP.
type Server struct {
	store     *Store
	generator Generator
	imageDir  string
}

func NewServer(store *Store, generator Generator, imageDir string) *Server {
	return &Server{store: store, generator: generator, imageDir: imageDir}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", s.handleSessions)
	mux.HandleFunc("GET /session/{id}", s.handleSession)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /regenerate", s.handleRegenerate)
	mux.HandleFunc("POST /update_status", s.handleUpdateStatus)
	mux.Handle("GET /static/generated/",
		http.StripPrefix("/static/generated/", http.FileServer(http.Dir(s.imageDir))))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		logger.L.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := s.store.GetSession(id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"messages": []api.Message{}})
		return
	}
	if err != nil {
		logger.L.Error("failed to load session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt    string `json:"prompt"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	promptNew := strings.TrimSpace(req.Prompt)
	if promptNew == "" {
		writeError(w, http.StatusBadRequest, "Prompt is empty")
		return
	}

	logger.L.Info("generation request", "prompt", promptNew, "session_id", req.SessionID)

	// An existing session refines its image: the new prompt is appended to
	// everything asked before.
	sessionID := req.SessionID
	prompt := promptNew
	exists := false
	if sessionID != "" {
		var err error
		exists, err = s.store.HasSession(sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
	}
	if exists {
		old, err := s.store.AllPrompts(sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
		if old != "" {
			prompt = old + ". " + promptNew
		}
	} else {
		var err error
		sessionID, err = s.store.CreateSession(promptNew)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		logger.L.Info("created session", "session_id", sessionID)
	}

	imageURL, err := s.generator.Generate(r.Context(), prompt)
	if err != nil {
		logger.L.Error("image generation failed", "error", err)
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Image generation failed: %v", err))
		return
	}

	botID := mintID()
	messages := []api.Message{
		{ID: mintID(), Sender: api.SenderUser, Text: promptNew},
		{ID: botID, Sender: api.SenderBot, ImageURL: imageURL,
			Text: "Image is generated from prompt:\n" + prompt},
		{ID: mintID(), Sender: api.SenderBot, Text: chat.FollowUpText},
	}
	for _, m := range messages {
		if err := s.store.AppendMessage(sessionID, m); err != nil {
			logger.L.Error("failed to append message", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save session")
			return
		}
	}

	writeJSON(w, http.StatusOK, api.GenerateResult{
		SessionID: sessionID,
		ImageURL:  imageURL,
		MessageID: botID,
	})
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "Missing message_id")
		return
	}

	sessionID, prompt, err := s.store.FindPrompt(req.MessageID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load message")
		return
	}
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "No valid prompt found")
		return
	}

	imageURL, err := s.generator.Generate(r.Context(), prompt)
	if err != nil {
		logger.L.Error("image generation failed", "error", err)
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Image generation failed: %v", err))
		return
	}

	botID := mintID()
	messages := []api.Message{
		{ID: mintID(), Sender: api.SenderUser, Text: prompt},
		{ID: botID, Sender: api.SenderBot, ImageURL: imageURL, Text: prompt},
		{ID: mintID(), Sender: api.SenderBot, Text: chat.FollowUpText},
	}
	for _, m := range messages {
		if err := s.store.AppendMessage(sessionID, m); err != nil {
			logger.L.Error("failed to append message", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save session")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"prompt":     prompt,
		"image_url":  imageURL,
		"message_id": botID,
	})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"message_id"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.MessageID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "Missing message_id or status")
		return
	}

	err := s.store.UpdateStatus(req.MessageID, req.Status)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
