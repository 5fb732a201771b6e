package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Manager tracks live workflow sessions. Each session owns exactly one
// record; abandoning a session cancels its outstanding fetches.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	baseCtx  context.Context
	deps     Services
	log      *logrus.Logger
}

type session struct {
	workflow *Workflow
	cancel   context.CancelFunc
}

// NewManager creates an empty session registry. Sessions live until they
// are closed, ctx is cancelled, or Shutdown runs; ctx must span the
// server's lifetime, not a single request's.
func NewManager(ctx context.Context, deps Services, log *logrus.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		baseCtx:  ctx,
		deps:     deps,
		log:      log,
	}
}

// Create starts a new workflow with a fresh record and returns it.
func (m *Manager) Create() *Workflow {
	id := uuid.New().String()
	w := New(id, m.deps, m.log)

	ctx, cancel := context.WithCancel(m.baseCtx)
	m.mu.Lock()
	m.sessions[id] = &session{workflow: w, cancel: cancel}
	m.mu.Unlock()

	go w.Run(ctx)
	return w
}

// Get returns a live workflow, or nil.
func (m *Manager) Get(id string) *Workflow {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s.workflow
	}
	return nil
}

// Close abandons a session, cancelling any in-flight reads.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.cancel()
	delete(m.sessions, id)
	return true
}

// Shutdown abandons every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.cancel()
		delete(m.sessions, id)
	}
}
