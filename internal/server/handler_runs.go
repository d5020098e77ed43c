package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/me/kernsim/internal/scenario"
	"github.com/me/kernsim/internal/store"
	"github.com/me/kernsim/pkg/model"
)

// maxScenarioBytes caps the body of POST /runs.
const maxScenarioBytes = 1 << 20

type runResponse struct {
	Run        *model.Run          `json:"run"`
	Mismatches []scenario.Mismatch `json:"mismatches,omitempty"`
	Error      string              `json:"error,omitempty"`
	Journaled  bool                `json:"journaled"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScenarioBytes))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "read body: " + err.Error(),
		})
		return
	}
	sc, err := scenario.Parse(body)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}

	res, replayErr := scenario.Replay(sc, s.logger.With("scenario", sc.Name))
	if res == nil {
		respondErr(w, reqID, replayErr)
		return
	}

	run := res.Run()
	run.ID = "run_" + uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	resp := runResponse{Run: run, Mismatches: res.Mismatches}
	if replayErr != nil {
		resp.Error = replayErr.Error()
	}

	if r.URL.Query().Get("dry_run") == "true" || s.store == nil {
		respondOK(w, reqID, resp)
		return
	}

	if err := s.store.CreateRun(r.Context(), run); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	resp.Journaled = true

	s.logger.Info("run journaled", "id", run.ID, "scenario", run.Name,
		"discipline", run.Discipline, "events", run.EventCount, "mismatches", len(res.Mismatches))
	respondCreated(w, reqID, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}

	opts := model.DefaultListOptions()
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid limit",
				model.FieldError{Field: "limit", Message: err.Error()}))
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid offset",
				model.FieldError{Field: "offset", Message: err.Error()}))
			return
		}
		opts.Offset = n
	}
	if v := q.Get("discipline"); v != "" {
		d, err := model.ParseDiscipline(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error(),
				model.FieldError{Field: "discipline", Message: "must be one of FCFS, Priority, RR, Multilevel"}))
			return
		}
		opts.Discipline = d
	}
	opts.Clamp()

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	respondList(w, reqID, runs, model.NewPagination(opts, len(runs), total))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
		return
	}
	respondOK(w, reqID, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
			return
		}
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	s.logger.Info("run deleted", "id", id)
	respondOK(w, reqID, map[string]any{"deleted": true})
}

func (s *Server) requireStore(w http.ResponseWriter, reqID string) bool {
	if s.store != nil {
		return true
	}
	respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
		Code:    model.ErrInternal,
		Message: "run journal is disabled",
	})
	return false
}
