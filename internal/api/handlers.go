package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/transcript"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/util"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Service is healthy", map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}))
}

func (s *Server) listConcertsHandler(w http.ResponseWriter, r *http.Request) {
	concerts, err := s.st.ListActiveConcerts()
	if err != nil {
		slog.Error("Server.listConcertsHandler: failed to list concerts", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list concerts"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(concerts))
}

func (s *Server) getConcertHandler(w http.ResponseWriter, r *http.Request) {
	concertID := chi.URLParam(r, "concertID")
	concert, err := s.st.GetConcert(concertID)
	if err != nil {
		slog.Error("Server.getConcertHandler: failed to load concert", "error", err, "concertID", concertID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load concert"))
		return
	}
	if concert == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Concert not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(concert))
}

func (s *Server) listConcertConversationsHandler(w http.ResponseWriter, r *http.Request) {
	concertID := chi.URLParam(r, "concertID")
	concert, err := s.st.GetConcert(concertID)
	if err != nil {
		slog.Error("Server.listConcertConversationsHandler: failed to load concert", "error", err, "concertID", concertID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load concert"))
		return
	}
	if concert == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Concert not found"))
		return
	}

	conversations, err := s.st.ListConversationsForConcert(concertID)
	if err != nil {
		slog.Error("Server.listConcertConversationsHandler: failed to list conversations", "error", err, "concertID", concertID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list conversations"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(conversations))
}

func (s *Server) createConcertHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConcertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	concert := models.Concert{
		ID:           util.GenerateConcertID(),
		Title:        req.Title,
		Date:         req.Date,
		Venue:        req.Venue,
		Organization: req.Organization,
		Program:      req.Program,
		IsActive:     req.IsActive,
		CreatedAt:    time.Now(),
	}
	if err := s.st.SaveConcert(concert); err != nil {
		slog.Error("Server.createConcertHandler: failed to save concert", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save concert"))
		return
	}

	slog.Info("Server.createConcertHandler: concert created", "concertID", concert.ID, "title", concert.Title)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Concert created successfully", concert))
}

func (s *Server) createConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	concert, err := s.st.GetConcert(req.ConcertID)
	if err != nil {
		slog.Error("Server.createConversationHandler: failed to load concert", "error", err, "concertID", req.ConcertID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load concert"))
		return
	}
	if concert == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Concert not found"))
		return
	}

	now := time.Now()
	conversation := models.Conversation{
		ID:             util.GenerateConversationID(),
		ConcertID:      req.ConcertID,
		Participant:    req.Participant,
		Messages:       []models.Message{},
		Status:         models.ConversationStatusInProgress,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := s.st.CreateConversation(conversation); err != nil {
		slog.Error("Server.createConversationHandler: failed to create conversation", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create conversation"))
		return
	}

	slog.Info("Server.createConversationHandler: conversation created",
		"conversationID", conversation.ID, "concertID", concert.ID, "participant", req.Participant.Name)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Conversation created successfully", conversation))
}

func (s *Server) getConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	conversation, err := s.st.GetConversation(conversationID)
	if err != nil {
		slog.Error("Server.getConversationHandler: failed to load conversation", "error", err, "conversationID", conversationID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load conversation"))
		return
	}
	if conversation == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(conversation))
}

func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), conversationID, req.Message)
	if err != nil {
		writeJSONResponse(w, turnErrorStatus(err), models.Error(err.Error()))
		return
	}

	if result.IsComplete {
		if err := s.engine.MarkComplete(r.Context(), conversationID); err != nil {
			slog.Error("Server.turnHandler: failed to mark conversation complete",
				"error", err, "conversationID", conversationID)
		}
	}

	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// turnErrorStatus maps engine errors to HTTP status codes.
func turnErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrConversationNotFound), errors.Is(err, models.ErrConcertNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConversationComplete):
		return http.StatusConflict
	case errors.Is(err, models.ErrModelUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) completeConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if err := s.engine.MarkComplete(r.Context(), conversationID); err != nil {
		if errors.Is(err, models.ErrConversationNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
			return
		}
		slog.Error("Server.completeConversationHandler: failed to complete conversation",
			"error", err, "conversationID", conversationID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to complete conversation"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Conversation completed", nil))
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Unsupported export format: "+format))
		return
	}

	conversation, err := s.st.GetConversation(conversationID)
	if err != nil {
		slog.Error("Server.exportHandler: failed to load conversation", "error", err, "conversationID", conversationID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load conversation"))
		return
	}
	if conversation == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}

	concert, err := s.st.GetConcert(conversation.ConcertID)
	if err != nil || concert == nil {
		slog.Error("Server.exportHandler: failed to load concert", "error", err, "concertID", conversation.ConcertID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load concert"))
		return
	}

	switch format {
	case "json":
		data, err := transcript.ExportJSON(conversation, concert)
		if err != nil {
			slog.Error("Server.exportHandler: failed to export JSON", "error", err, "conversationID", conversationID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to export conversation"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=transcript_%s.json", conversationID))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			slog.Error("Server.exportHandler: failed to write export", "error", err)
		}
	default:
		text := transcript.FormatText(conversation, concert, time.Now())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=transcript_%s.txt", conversationID))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(text)); err != nil {
			slog.Error("Server.exportHandler: failed to write export", "error", err)
		}
	}
}
