package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/kernsim/pkg/model"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Discipline string `json:"discipline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	d := s.config.Discipline
	if req.Discipline != "" {
		parsed, err := model.ParseDiscipline(req.Discipline)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error(),
				model.FieldError{Field: "discipline", Message: "must be one of FCFS, Priority, RR, Multilevel"}))
			return
		}
		d = parsed
	}

	sess, err := s.sessions.create(d)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}

	s.logger.Info("session created", "id", sess.id, "discipline", d)
	respondCreated(w, reqID, sess.view())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	sessions := s.sessions.list()
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sess.view())
	}
	respondList(w, reqID, views, &model.Pagination{
		Total:  len(views),
		Limit:  len(views),
		Offset: 0,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	sess := s.sessions.get(id)
	if sess == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return
	}
	respondOK(w, reqID, sess.view())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if !s.sessions.delete(id) {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return
	}
	s.logger.Info("session deleted", "id", id)
	respondOK(w, reqID, map[string]any{"deleted": true})
}

func (s *Server) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	sess := s.sessions.get(id)
	if sess == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return
	}

	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if ev.Class != "" {
		c, err := model.ParseClass(string(ev.Class))
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error(),
				model.FieldError{Field: "class", Message: "must be Foreground or Background"}))
			return
		}
		ev.Class = c
	}

	res, err := sess.apply(ev)
	if err != nil {
		s.logger.Debug("event rejected", "session_id", id, "event", ev.String(), "error", err)
		respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, res)
}
