package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/kernsim/pkg/model"
)

// Version is reported by /health and the CLI.
const Version = "0.1.0"

type healthResponse struct {
	Status      string             `json:"status"`
	Version     string             `json:"version"`
	GoVersion   string             `json:"go_version"`
	Uptime      string             `json:"uptime"`
	Store       string             `json:"store"`
	Sessions    int                `json:"sessions"`
	Disciplines []model.Discipline `json:"disciplines"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	storeStatus := "disabled"
	if s.store != nil {
		storeStatus = "sqlite"
	}
	respondOK(w, reqID, healthResponse{
		Status:      "healthy",
		Version:     Version,
		GoVersion:   runtime.Version(),
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		Store:       storeStatus,
		Sessions:    s.sessions.len(),
		Disciplines: model.Disciplines,
	})
}
