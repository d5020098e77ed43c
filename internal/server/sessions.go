package server

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/kernsim/internal/kernel"
	"github.com/me/kernsim/pkg/model"
)

// session is a live kernel driven over HTTP. A kernel is single-threaded, so
// every access goes through mu.
type session struct {
	id        string
	createdAt time.Time

	mu         sync.Mutex
	kernel     *kernel.Kernel
	events     int
	lastActive time.Time
}

type sessionView struct {
	ID         string           `json:"id"`
	Discipline model.Discipline `json:"discipline"`
	CreatedAt  time.Time        `json:"created_at"`
	LastActive time.Time        `json:"last_active"`
	Events     int              `json:"events"`
	Snapshot   model.Snapshot   `json:"snapshot"`
}

func (s *session) view() sessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sessionView{
		ID:         s.id,
		Discipline: s.kernel.Discipline(),
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Events:     s.events,
		Snapshot:   s.kernel.Snapshot(),
	}
}

type eventResult struct {
	Running model.PID `json:"running"`
	Time    int       `json:"time"`
}

func (s *session) apply(ev model.Event) (eventResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now().UTC()
	running, err := s.kernel.Apply(ev)
	if err == nil {
		s.events++
	}
	return eventResult{Running: running, Time: s.kernel.Clock()}, err
}

// sessionRegistry owns the live sessions of one server.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	limit    int
	logger   *slog.Logger
}

func newSessionRegistry(limit int, logger *slog.Logger) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		limit:    limit,
		logger:   logger,
	}
}

func (r *sessionRegistry) create(d model.Discipline) (*session, error) {
	id := "ses_" + uuid.New().String()
	k, err := kernel.New(d, r.logger.With("session_id", id))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.sessions) >= r.limit {
		return nil, &model.APIError{
			Code:    model.ErrConflict,
			Message: fmt.Sprintf("session limit of %d reached", r.limit),
		}
	}
	now := time.Now().UTC()
	s := &session{id: id, createdAt: now, lastActive: now, kernel: k}
	r.sessions[id] = s
	return s, nil
}

func (r *sessionRegistry) get(id string) *session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

func (r *sessionRegistry) delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// expireIdle drops the sessions last used before cutoff.
func (r *sessionRegistry) expireIdle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []string
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

func (r *sessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// list returns the sessions oldest first.
func (r *sessionRegistry) list() []*session {
	r.mu.RLock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}
