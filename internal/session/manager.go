package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/domain"
)

// Factory builds the transport wiring for one session attendance.
type Factory func(p Params) (*Session, error)

// Manager tracks the live sessions of this process, one per room.
type Manager struct {
	mu       sync.RWMutex
	sessions map[domain.RoomID]*Session
	build    Factory
}

func NewManager(build Factory) *Manager {
	return &Manager{sessions: make(map[domain.RoomID]*Session), build: build}
}

func (m *Manager) GetOrCreate(p Params) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[p.Room]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[p.Room]; ok {
		return s, nil
	}
	s, err := m.build(p)
	if err != nil {
		return nil, err
	}
	m.sessions[p.Room] = s
	log.Info().Str("module", "session.manager").Str("room", string(p.Room)).Str("user", string(p.User.ID)).Msg("session created")
	return s, nil
}

func (m *Manager) Get(room domain.RoomID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[room]
	return s, ok
}

// Info is a read-only listing entry for APIs.
type Info struct {
	Room   domain.RoomID `json:"room"`
	User   domain.UserID `json:"user"`
	Joined bool          `json:"joined"`
}

func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for room, s := range m.sessions {
		out = append(out, Info{Room: room, User: s.User().ID, Joined: s.Snapshot().Joined})
	}
	return out
}

// Stop leaves and forgets one session.
func (m *Manager) Stop(ctx context.Context, room domain.RoomID) error {
	m.mu.Lock()
	s, ok := m.sessions[room]
	delete(m.sessions, room)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Leave(ctx)
}

// StopAll tears every session down; used on process shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[domain.RoomID]*Session)
	m.mu.Unlock()

	for room, s := range sessions {
		if err := s.Leave(ctx); err != nil {
			log.Error().Err(err).Str("module", "session.manager").Str("room", string(room)).Msg("leave on shutdown")
		}
	}
}
