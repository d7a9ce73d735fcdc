package conversation

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zeyadelgabbas/Video-Audio-RAG/core/pipeline"
	"github.com/Zeyadelgabbas/Video-Audio-RAG/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

// SessionState tracks a session through its lifecycle
type SessionState string

const (
	SessionStateEmpty  SessionState = "empty"
	SessionStateActive SessionState = "active"
	SessionStateClosed SessionState = "closed"
)

// session is one conversation. mu serializes every mutation, so concurrent
// turns within a session keep a well defined order.
type session struct {
	mu         sync.Mutex
	state      SessionState
	turns      []model.Turn
	lastActive time.Time
}

// Manager owns the conversation sessions of one instance. Sessions live in
// memory; a closed session keeps its history readable but rejects new turns.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*session
	window      int
	idleTimeout time.Duration
	summarizer  pipeline.GenerateFunc
	log         *slog.Logger
}

// NewManager creates a session manager. window caps the stored turns per
// session, 0 keeps everything. idleTimeout closes idle sessions lazily on
// the next access, 0 disables expiry.
func NewManager(window int, idleTimeout time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[uuid.UUID]*session),
		window:      window,
		idleTimeout: idleTimeout,
		log:         logger,
	}
}

// SetSummarizer sets the generation function Compact folds older turns with.
// Without one, compaction falls back to dropping them.
func (m *Manager) SetSummarizer(generate pipeline.GenerateFunc) {
	m.summarizer = generate
}

// NewSession creates an empty session and returns its id
func (m *Manager) NewSession() uuid.UUID {
	id := uuid.New()

	m.mu.Lock()
	m.sessions[id] = &session{
		state:      SessionStateEmpty,
		lastActive: time.Now(),
	}
	m.mu.Unlock()

	return id
}

func (m *Manager) lookup(id uuid.UUID) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// expireLocked closes the session once it has been idle for longer than the
// timeout. The caller holds s.mu.
func (m *Manager) expireLocked(s *session) {
	if m.idleTimeout <= 0 || s.state == SessionStateClosed {
		return
	}
	if time.Since(s.lastActive) >= m.idleTimeout {
		s.state = SessionStateClosed
	}
}

// AppendTurn adds one turn to a session. The first turn moves the session
// from empty to active; every append refreshes the idle clock.
func (m *Manager) AppendTurn(id uuid.UUID, turn model.Turn) error {
	return m.AppendTurns(id, turn)
}

// AppendTurns adds a group of turns, typically one question and its answer,
// under a single lock so no concurrent turn can interleave with the exchange.
func (m *Manager) AppendTurns(id uuid.UUID, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.expireLocked(s)
	if s.state == SessionStateClosed {
		return ErrSessionClosed
	}

	now := time.Now()
	for _, turn := range turns {
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = now
		}
		s.turns = append(s.turns, turn)
	}
	s.state = SessionStateActive
	s.lastActive = now

	// Drop the oldest turns beyond the window. The copy releases the old
	// backing array, otherwise a long session pins every turn it ever saw.
	if m.window > 0 && len(s.turns) > m.window {
		s.turns = append([]model.Turn(nil), s.turns[len(s.turns)-m.window:]...)
	}

	return nil
}

// History returns the session's turns in order, most recent last. maxTurns
// caps the result to the most recent turns, 0 returns everything. A closed
// session stays readable.
func (m *Manager) History(id uuid.UUID, maxTurns int) ([]model.Turn, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.expireLocked(s)

	turns := s.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	return append([]model.Turn(nil), turns...), nil
}

// Close ends a session. Closing an already closed session is not an error.
func (m *Manager) Close(id uuid.UUID) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = SessionStateClosed
	s.mu.Unlock()

	return nil
}

// State reports the session's lifecycle state, applying lazy expiry first
func (m *Manager) State(id uuid.UUID) (SessionState, error) {
	s, err := m.lookup(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.expireLocked(s)
	return s.state, nil
}

// Count returns the number of sessions the manager holds, closed ones
// included
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
