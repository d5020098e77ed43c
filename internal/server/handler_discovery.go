package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "kernsim API",
		Version:     "v1",
		Description: "Simulated single-CPU kernel: FCFS, Priority, RR and Multilevel scheduling with semaphores and mutexes",
		Endpoints: []endpointInfo{
			{"/api/v1/sessions", []string{"GET", "POST"}, "Live kernel sessions. POST body: {\"discipline\": \"RR\"}"},
			{"/api/v1/sessions/{id}", []string{"GET", "DELETE"}, "Session detail with kernel snapshot"},
			{"/api/v1/sessions/{id}/events", []string{"POST"}, "Apply one event (arrival, exit, set_priority, semaphore_*, mutex_*, timer)"},
			{"/api/v1/runs", []string{"GET", "POST"}, "Replay a scenario (YAML or JSON body) and journal it. POST accepts ?dry_run=true"},
			{"/api/v1/runs/{id}", []string{"GET", "DELETE"}, "Journaled run with its trace"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
